package archive

import (
	"context"
	"errors"
	"net/http"
	"time"

	"archiver/src/utils/archivematica"
	"archiver/src/utils/config"
	"archiver/src/utils/model"
	"archiver/src/utils/monitoring"
	"archiver/src/utils/task"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rest API server. Queries and commands are keyed by accession id,
// event intake and the sweep trigger sit next to them.
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	store        Store
	orchestrator *Orchestrator
	poller       *Poller
	sweeper      *Sweeper
	input        chan<- *SipCreated
	client       *archivematica.Client
	monitor      monitoring.Monitor

	// Short lived cache of reconciled statuses, keyed by accession id.
	// Keeps repeated ?real=true calls from hammering Archivematica.
	statusCache *gocache.Cache
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "server").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	self.Router = gin.New()

	self.httpServer = &http.Server{
		Addr:    self.Config.RESTListenAddress,
		Handler: self.Router,
	}

	ttl := config.Archiver.StatusCacheTtl
	self.statusCache = gocache.New(ttl, 2*ttl)

	return
}

func (self *Server) WithStore(store Store) *Server {
	self.store = store
	return self
}

func (self *Server) WithOrchestrator(orchestrator *Orchestrator) *Server {
	self.orchestrator = orchestrator
	return self
}

func (self *Server) WithPoller(poller *Poller) *Server {
	self.poller = poller
	return self
}

func (self *Server) WithSweeper(sweeper *Sweeper) *Server {
	self.sweeper = sweeper
	return self
}

func (self *Server) WithInputChannel(input chan<- *SipCreated) *Server {
	self.input = input
	return self
}

func (self *Server) WithClient(client *archivematica.Client) *Server {
	self.client = client
	return self
}

func (self *Server) WithMonitor(monitor monitoring.Monitor) *Server {
	self.monitor = monitor
	return self
}

func (self *Server) registerRoutes() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(self.monitor.GetPrometheusCollector())

	v1 := self.Router.Group("v1")
	{
		v1.GET("health", self.monitor.OnGetHealth)
		v1.GET("state", self.monitor.OnGetState)
		v1.GET("metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

		v1.GET("archives/:accession_id", self.onGetArchive)
		v1.PATCH("archives/:accession_id", self.onPatchArchive)
		v1.GET("archives/:accession_id/file", self.onDownloadFile)

		v1.POST("sweep", self.onSweep)
		v1.POST("events/sip-created", self.onSipCreated)
	}
}

func (self *Server) run() (err error) {
	if !self.Config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	self.registerRoutes()

	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start REST server")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown REST server")
		return
	}
}

type archiveResponse struct {
	SipID           uuid.UUID           `json:"sip_id"`
	Status          model.ArchiveStatus `json:"status"`
	AccessionID     string              `json:"accession_id"`
	ArchivematicaID string              `json:"archivematica_id,omitempty"`
}

func newArchiveResponse(ark *model.Archive, status model.ArchiveStatus) (out archiveResponse) {
	out.SipID = ark.SipID
	out.Status = status
	if ark.AccessionID.Valid {
		out.AccessionID = ark.AccessionID.String
	}
	if ark.ArchivematicaID.Valid {
		out.ArchivematicaID = ark.ArchivematicaID.UUID.String()
	}
	return
}

func (self *Server) getArchive(ctx *gin.Context) (ark *model.Archive, ok bool) {
	accessionID := ctx.Param("accession_id")

	ark, err := self.store.GetArchiveByAccession(ctx.Request.Context(), accessionID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "archive not found"})
			return
		}
		self.Log.WithError(err).Error("Failed to load archive")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	return ark, true
}

func (self *Server) onGetArchive(ctx *gin.Context) {
	ark, ok := self.getArchive(ctx)
	if !ok {
		return
	}

	forced := ctx.Query("real") == "true"
	if !forced {
		ctx.JSON(http.StatusOK, newArchiveResponse(ark, ark.Status))
		return
	}

	accessionID := ctx.Param("accession_id")
	if cached, found := self.statusCache.Get(accessionID); found {
		ctx.JSON(http.StatusOK, newArchiveResponse(ark, cached.(model.ArchiveStatus)))
		return
	}

	status, err := self.poller.PollAndReconcile(ctx.Request.Context(), ark, true)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": ark.Status})
		return
	}

	self.statusCache.Set(accessionID, status, gocache.DefaultExpiration)
	ctx.JSON(http.StatusOK, newArchiveResponse(ark, status))
}

type patchArchiveRequest struct {
	Status          model.ArchiveStatus `json:"status" binding:"required"`
	ArchivematicaID string              `json:"archivematica_id"`
}

func (self *Server) onPatchArchive(ctx *gin.Context) {
	ark, ok := self.getArchive(ctx)
	if !ok {
		return
	}

	var request patchArchiveRequest
	err := ctx.ShouldBindJSON(&request)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reqCtx := ctx.Request.Context()
	switch request.Status {
	case model.StatusWaiting:
		accessionID := ""
		if ark.AccessionID.Valid {
			accessionID = ark.AccessionID.String
		}
		err = self.orchestrator.Start(reqCtx, ark.SipID, accessionID)
	case model.StatusProcessingTransfer:
		err = self.orchestrator.MarkProcessingTransfer(reqCtx, ark.SipID, request.ArchivematicaID)
	case model.StatusProcessingAip:
		err = self.orchestrator.MarkProcessingAip(reqCtx, ark.SipID, request.ArchivematicaID)
	case model.StatusRegistered:
		err = self.orchestrator.Finish(reqCtx, ark.SipID, request.ArchivematicaID)
	case model.StatusFailed:
		err = self.orchestrator.Fail(reqCtx, ark.SipID, false)
	case model.StatusFailedTransfer:
		err = self.orchestrator.Fail(reqCtx, ark.SipID, true)
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "status has no operation: " + string(request.Status)})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	ark, err = self.store.GetArchive(ctx.Request.Context(), ark.SipID)
	if err != nil {
		self.Log.WithError(err).Error("Failed to reload archive")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	ctx.JSON(http.StatusOK, newArchiveResponse(ark, ark.Status))
}

func (self *Server) onDownloadFile(ctx *gin.Context) {
	ark, ok := self.getArchive(ctx)
	if !ok {
		return
	}

	if ark.Status != model.StatusRegistered || !ark.ArchivematicaID.Valid {
		ctx.JSON(http.StatusConflict, gin.H{"error": "archive is not registered yet"})
		return
	}

	ctx.Header("Content-Type", "application/octet-stream")
	ctx.Header("Content-Disposition", `attachment; filename="`+ctx.Param("accession_id")+`.7z"`)

	err := self.client.DownloadAip(ctx.Request.Context(), ark.ArchivematicaID.UUID.String(), ctx.Writer)
	if err != nil {
		self.Log.WithError(err).Error("Failed to stream AIP")
		ctx.Status(http.StatusBadGateway)
		return
	}
}

func (self *Server) onSweep(ctx *gin.Context) {
	olderThan := self.Config.Archiver.SweepOlderThan
	if raw := ctx.Query("older_than"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		olderThan = parsed
	}
	async := ctx.Query("async") == "true"

	count, err := self.sweeper.SweepAndStart(ctx.Request.Context(), olderThan, async)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"swept": count, "async": async})
}

func (self *Server) onSipCreated(ctx *gin.Context) {
	var event SipCreated
	err := ctx.ShouldBindJSON(&event)
	if err != nil || event.SipID == uuid.Nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "sip_id is required"})
		return
	}

	select {
	case self.input <- &event:
		ctx.JSON(http.StatusAccepted, gin.H{"accepted": true})
	default:
		// Queue full, the sweep will eventually pick the record up
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "event queue is full"})
	}
}

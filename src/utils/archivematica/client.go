package archivematica

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"archiver/src/utils/config"
	"archiver/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Client of the Archivematica dashboard and storage service APIs.
// Every request is authenticated with the username and API key query
// parameters and throttled through a shared rate limiter.
type Client struct {
	client  *resty.Client
	config  *config.Archivematica
	log     *logrus.Entry
	limiter *rate.Limiter
}

func NewClient(config *config.Archivematica) (self *Client) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("archivematica-client")
	self.limiter = rate.NewLimiter(rate.Every(config.RateInterval), 1)

	self.client = resty.New().
		SetBaseURL(config.Url).
		SetTimeout(config.RequestTimeout).
		SetHeader("User-Agent", "archiver").
		SetTransport(self.createTransport()).
		OnBeforeRequest(self.onRateLimit).
		OnAfterResponse(self.onStatusToError)

	return
}

func (self *Client) createTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   self.config.DialerTimeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		ForceAttemptHTTP2: true,

		DialContext:           dialer.DialContext,
		ExpectContinueTimeout: 1 * time.Second,

		// The dashboard may stop responding on idle connections
		IdleConnTimeout:     self.config.IdleConnTimeout,
		MaxIdleConns:        1,
		MaxIdleConnsPerHost: 1,
	}
}

func (self *Client) onRateLimit(c *resty.Client, req *resty.Request) (err error) {
	// Blocks till the request is possible or ctx gets canceled
	err = self.limiter.Wait(req.Context())
	if err != nil {
		self.log.WithError(err).Error("Rate limiting failed")
	}
	return
}

func (self *Client) onStatusToError(c *resty.Client, resp *resty.Response) error {
	// Non-success status code turns into an error
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() > 399 && resp.StatusCode() < 500 {
		self.log.WithField("status", resp.StatusCode()).
			WithField("resp", string(resp.Body())).
			WithField("url", resp.Request.URL).
			Debug("Bad request")
	}
	return &Error{
		StatusCode: resp.StatusCode(),
		Endpoint:   resp.Request.URL,
		Body:       string(resp.Body()),
	}
}

func (self *Client) Request(ctx context.Context) *resty.Request {
	return self.client.R().
		SetContext(ctx).
		SetQueryParam("username", self.config.Username).
		SetQueryParam("api_key", self.config.ApiKey)
}

// Asks the dashboard how far the transfer phase got
func (self *Client) GetTransferStatus(ctx context.Context, unitId string) (out *UnitStatus, err error) {
	resp, err := self.Request(ctx).
		SetResult(&UnitStatus{}).
		SetPathParam("unitId", unitId).
		Get("/api/transfer/status/{unitId}/")
	if err != nil {
		return
	}

	out, ok := resp.Result().(*UnitStatus)
	if !ok {
		err = ErrFailedToParse
		return
	}
	return
}

// Asks the dashboard how far the ingest (AIP building) phase got
func (self *Client) GetIngestStatus(ctx context.Context, unitId string) (out *UnitStatus, err error) {
	resp, err := self.Request(ctx).
		SetResult(&UnitStatus{}).
		SetPathParam("unitId", unitId).
		Get("/api/ingest/status/{unitId}/")
	if err != nil {
		return
	}

	out, ok := resp.Result().(*UnitStatus)
	if !ok {
		err = ErrFailedToParse
		return
	}
	return
}

// Streams the stored AIP from the storage service into w
func (self *Client) DownloadAip(ctx context.Context, aipId string, w io.Writer) (err error) {
	resp, err := self.Request(ctx).
		SetDoNotParseResponse(true).
		SetPathParam("aipId", aipId).
		Get(fmt.Sprintf("%s/api/v2/file/{aipId}/download/", self.config.StorageUrl))
	if err != nil {
		return
	}

	body := resp.RawBody()
	if body == nil {
		return ErrFailedToParse
	}
	defer body.Close()

	// Unparsed responses skip the status middleware, the check happens here.
	// The body is drained into the error instead of the caller's writer.
	if !resp.IsSuccess() {
		snippet, _ := io.ReadAll(io.LimitReader(body, 1024))
		return &Error{
			StatusCode: resp.StatusCode(),
			Endpoint:   resp.Request.URL,
			Body:       string(snippet),
		}
	}

	_, err = io.Copy(w, body)
	return
}

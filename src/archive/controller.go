package archive

import (
	"archiver/src/utils/archivematica"
	"archiver/src/utils/config"
	"archiver/src/utils/eligibility"
	"archiver/src/utils/events"
	"archiver/src/utils/model"
	monitor_archiver "archiver/src/utils/monitoring/archiver"
	"archiver/src/utils/task"
	"archiver/src/utils/transfer"
)

type Controller struct {
	*task.Task
}

// Main class that ties the archiving pipeline together.
// Sets up event intake, the sweep schedule, reconciliation and the REST API.
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)

	self.Task = task.NewTask(config, "controller")

	monitor := monitor_archiver.NewMonitor().
		WithMaxHistorySize(30)

	db, err := model.NewConnection(self.Ctx, config, "archiver")
	if err != nil {
		return
	}

	policy, err := eligibility.Get(config.Archiver.EligibilityPolicy)
	if err != nil {
		return
	}

	backend, err := transfer.Get(config.Archiver.TransferBackend, &config.Archiver)
	if err != nil {
		return
	}

	store := NewDbStore(db)
	client := archivematica.NewClient(&config.Archivematica)
	bus := events.NewBus()

	orchestrator := NewOrchestrator(config).
		WithStore(store).
		WithBackend(backend).
		WithBus(bus).
		WithMonitor(monitor)

	poller := NewPoller(config).
		WithAuthority(client).
		WithOrchestrator(orchestrator).
		WithMonitor(monitor)

	listener := NewListener(config).
		WithStore(store).
		WithPolicy(policy).
		WithMonitor(monitor)

	sweeper := NewSweeper(config).
		WithStore(store).
		WithOrchestrator(orchestrator).
		WithMonitor(monitor)

	server := NewServer(config).
		WithStore(store).
		WithOrchestrator(orchestrator).
		WithPoller(poller).
		WithSweeper(sweeper).
		WithInputChannel(listener.GetChannel()).
		WithClient(client).
		WithMonitor(monitor)

	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(listener.Task).
		WithSubtask(sweeper.Task).
		WithSubtask(server.Task)

	if config.Redis.Enabled {
		publisher := events.NewRedisPublisher(config, "redis_publisher").
			WithInputChannel(bus.Subscribe(config.Archiver.ListenerQueueSize)).
			WithMonitor(monitor)

		self.Task = self.Task.
			WithSubtask(publisher.Task)
	}

	return
}

package monitor_archiver

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	RecordsCreated    *prometheus.Desc
	RecordsIgnored    *prometheus.Desc
	TransfersStarted  *prometheus.Desc
	TransfersFinished *prometheus.Desc
	TransfersFailed   *prometheus.Desc
	SweepsRun         *prometheus.Desc
	RecordsSwept      *prometheus.Desc
	Reconciliations   *prometheus.Desc
	DbError           *prometheus.Desc
	TransferError     *prometheus.Desc
	PollError         *prometheus.Desc
	UnknownStatus     *prometheus.Desc
}

func NewCollector() *Collector {
	labels := prometheus.Labels{
		"app": "archiver",
	}

	return &Collector{
		RecordsCreated:    prometheus.NewDesc("records_created", "", nil, labels),
		RecordsIgnored:    prometheus.NewDesc("records_ignored", "", nil, labels),
		TransfersStarted:  prometheus.NewDesc("transfers_started", "", nil, labels),
		TransfersFinished: prometheus.NewDesc("transfers_finished", "", nil, labels),
		TransfersFailed:   prometheus.NewDesc("transfers_failed", "", nil, labels),
		SweepsRun:         prometheus.NewDesc("sweeps_run", "", nil, labels),
		RecordsSwept:      prometheus.NewDesc("records_swept", "", nil, labels),
		Reconciliations:   prometheus.NewDesc("reconciliations", "", nil, labels),
		DbError:           prometheus.NewDesc("db_error", "", nil, labels),
		TransferError:     prometheus.NewDesc("transfer_error", "", nil, labels),
		PollError:         prometheus.NewDesc("poll_error", "", nil, labels),
		UnknownStatus:     prometheus.NewDesc("unknown_status_error", "", nil, labels),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.RecordsCreated
	ch <- self.RecordsIgnored
	ch <- self.TransfersStarted
	ch <- self.TransfersFinished
	ch <- self.TransfersFailed
	ch <- self.SweepsRun
	ch <- self.RecordsSwept
	ch <- self.Reconciliations
	ch <- self.DbError
	ch <- self.TransferError
	ch <- self.PollError
	ch <- self.UnknownStatus
}

// Collect implements required collect function for all prometheus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	state := &self.monitor.Report.Archiver.State
	errors := &self.monitor.Report.Archiver.Errors

	ch <- prometheus.MustNewConstMetric(self.RecordsCreated, prometheus.CounterValue, float64(state.RecordsCreated.Load()))
	ch <- prometheus.MustNewConstMetric(self.RecordsIgnored, prometheus.CounterValue, float64(state.RecordsIgnored.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransfersStarted, prometheus.CounterValue, float64(state.TransfersStarted.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransfersFinished, prometheus.CounterValue, float64(state.TransfersFinished.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransfersFailed, prometheus.CounterValue, float64(state.TransfersFailed.Load()))
	ch <- prometheus.MustNewConstMetric(self.SweepsRun, prometheus.CounterValue, float64(state.SweepsRun.Load()))
	ch <- prometheus.MustNewConstMetric(self.RecordsSwept, prometheus.CounterValue, float64(state.RecordsSwept.Load()))
	ch <- prometheus.MustNewConstMetric(self.Reconciliations, prometheus.CounterValue, float64(state.Reconciliations.Load()))
	ch <- prometheus.MustNewConstMetric(self.DbError, prometheus.CounterValue, float64(errors.DbError.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransferError, prometheus.CounterValue, float64(errors.TransferError.Load()))
	ch <- prometheus.MustNewConstMetric(self.PollError, prometheus.CounterValue, float64(errors.PollTransferError.Load()+errors.PollIngestError.Load()))
	ch <- prometheus.MustNewConstMetric(self.UnknownStatus, prometheus.CounterValue, float64(errors.UnknownStatusError.Load()))
}

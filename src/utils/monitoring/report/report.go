package report

type Report struct {
	Run            *RunReport            `json:"run,omitempty"`
	Archiver       *ArchiverReport       `json:"archiver,omitempty"`
	RedisPublisher *RedisPublisherReport `json:"redis_publisher,omitempty"`
}

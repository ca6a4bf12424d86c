package worker

type Config struct {
	NumWorkers int `yaml:"num_workers"`
	// QueueSize bounds the in-memory queue used when no brokers are configured.
	QueueSize int `yaml:"queue_size"`
}

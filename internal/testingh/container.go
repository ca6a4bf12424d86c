// Package testingh starts throwaway docker containers for integration suites.
package testingh

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
)

var hostName = os.Getenv("OVERRIDE_HOSTNAME")

func init() {
	const defaultHostName = "localhost"

	if hostName == "" {
		hostName = defaultHostName
	}
}

type Container struct {
	resource *dockertest.Resource
}

// NewRedpanda starts a single node Redpanda broker and calls connectFn with its address
// until it succeeds.
func NewRedpanda(connectFn func(connURL string) error) (*Container, error) {
	const port = "9092/tcp"

	hostPort, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free host port: %w", err)
	}

	return run(&dockertest.RunOptions{
		Repository: "redpandadata/redpanda",
		Tag:        "latest",
		PortBindings: map[docker.Port][]docker.PortBinding{
			port: {{
				HostIP:   hostName,
				HostPort: strconv.Itoa(hostPort),
			}},
		},
		Cmd: []string{
			"redpanda start",
			"--overprovisioned",
			"--smp 1",
			"--memory 1G",
			"--reserve-memory 0M",
			"--node-id 0",
			"--check=false",
			fmt.Sprintf("--advertise-kafka-addr %s:%v", hostName, hostPort),
		},
	}, port, connectFn)
}

// NewClickhouse starts a ClickHouse server with database test_db and user su/su.
func NewClickhouse(connectFn func(connURL string) error) (*Container, error) {
	const port = "9000/tcp"

	hostPort, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free host port: %w", err)
	}

	return run(&dockertest.RunOptions{
		Repository: "clickhouse/clickhouse-server",
		Tag:        "latest-alpine",
		Env: []string{
			"CLICKHOUSE_DB=test_db",
			"CLICKHOUSE_DEFAULT_ACCESS_MANAGEMENT=1",
			"CLICKHOUSE_USER=su",
			"CLICKHOUSE_PASSWORD=su",
		},
		PortBindings: map[docker.Port][]docker.PortBinding{
			port: {{
				HostIP:   hostName,
				HostPort: strconv.Itoa(hostPort),
			}},
		},
	}, port, connectFn)
}

func run(opts *dockertest.RunOptions, port string, connectFn func(connURL string) error) (*Container, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not connect to docker: %w", err)
	}

	opts.Auth = docker.AuthConfiguration{
		Username: os.Getenv("ARTIFACTORY_USER"),
		Password: os.Getenv("ARTIFACTORY_PWD"),
	}
	resource, err := pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return nil, fmt.Errorf("could not create a container: %w", err)
	}

	container := &Container{
		resource: resource,
	}
	addr := fmt.Sprintf("%s:%s", hostName, resource.GetPort(port))
	// the service in the container may need a while before it accepts connections
	if err := pool.Retry(func() error {
		return connectFn(addr)
	}); err != nil {
		_ = resource.Close()
		return nil, fmt.Errorf("could not connect to container: %w", err)
	}

	return container, nil
}

func (c *Container) Purge() error {
	return c.resource.Close()
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

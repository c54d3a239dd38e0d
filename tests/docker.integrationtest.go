//go:build integration

package tests

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

var ErrDockerFailure = errors.New("docker failure")

// containerTimeout is the longest a test container lives and the longest it may take to become ready.
const containerTimeout = 120 * time.Second

// Container is a docker container started for integration testing.
type Container struct {
	pool     *dockertest.Pool
	resource *dockertest.Resource
}

// ReadyFunc reports if the application in the container accepts connections.
// It is called repeatedly, with a backoff, until it returns nil or the timeout is reached.
type ReadyFunc func(c *Container) error

// StartContainer pulls the image and starts a container as configured by runOptions, e.g.
// Repository "postgres", Tag "16", and Env for the variables of the image.
// It returns once ready succeeds; Close the Container after the tests.
func StartContainer(runOptions *dockertest.RunOptions, ready ReadyFunc) (*Container, error) {
	if runOptions == nil {
		return nil, fmt.Errorf("%w: missing run options", ErrDockerFailure)
	}

	if ready == nil {
		return nil, fmt.Errorf("%w: missing ready func", ErrDockerFailure)
	}

	pool, err := dockertest.NewPool("") // default socket or DOCKER_HOST
	if err != nil {
		return nil, fmt.Errorf("%w: could not create pool: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	if err = pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("%w: could not reach docker: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	resource, err := pool.RunWithOptions(runOptions, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: could not run container: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	_ = resource.Expire(uint(containerTimeout.Seconds())) // kill the container, if a test run hangs

	container := &Container{pool: pool, resource: resource}

	pool.MaxWait = containerTimeout
	if err = pool.Retry(func() error { return ready(container) }); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("%w: container did not become ready: %v", ErrDockerFailure, err) //nolint:errorlint,lll // prevent err in api
	}

	return container, nil
}

// Port returns the host port mapped to the container's port id, e.g. "5432/tcp".
func (c *Container) Port(id string) int {
	port, _ := strconv.Atoi(c.resource.GetPort(id))

	return port
}

// Close stops and removes the container.
func (c *Container) Close() error {
	if err := c.pool.Purge(c.resource); err != nil {
		return fmt.Errorf("%w: could not purge container: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	return nil
}

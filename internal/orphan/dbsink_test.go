package orphan

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/couchbase/gocbcorex/internal/memdx"
)

var sharedConnString string

func TestMain(m *testing.M) {
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "gocbcorex_test",
			"POSTGRES_USER":     "gocbcorex_test",
			"POSTGRES_PASSWORD": "gocbcorex_test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("5432/tcp"),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	sharedConnString = fmt.Sprintf(
		"postgres://gocbcorex_test:gocbcorex_test@%s:%s/gocbcorex_test?sslmode=disable",
		host, port.Port(),
	)

	os.Exit(m.Run())
}

func TestDBSinkReportAndRecent(t *testing.T) {
	if testing.Short() {
		t.Skip("requires a postgres container")
	}

	sink, err := NewDBSink(DBSinkConfig{ConnString: sharedConnString})
	require.NoError(t, err)
	defer func() { _ = sink.Close() }()

	sink.Report(memdx.OrphanContext{
		ConnID:         "conn-1",
		OpCode:         memdx.OpCodeGet,
		Opaque:         7,
		LocalAddr:      "127.0.0.1:1",
		PeerAddr:       "127.0.0.1:2",
		ServerDuration: 2500 * time.Microsecond,
	})

	recs, err := sink.Recent(10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "conn-1", recs[0].ConnID)
	assert.Equal(t, "Get", recs[0].OpCode)
	assert.Equal(t, uint32(7), recs[0].Opaque)
}

func TestNewDBSinkRequiresConnString(t *testing.T) {
	_, err := NewDBSink(DBSinkConfig{})
	assert.Error(t, err)
}

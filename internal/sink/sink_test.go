//go:build integration

package sink_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mysociety/policyscore/internal/model"
	"github.com/mysociety/policyscore/internal/sink"
	"github.com/mysociety/policyscore/internal/sink/migrations"
)

var testDB *sink.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "policyscore",
			"POSTGRES_PASSWORD": "policyscore",
			"POSTGRES_DB":       "policyscore",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start container: %v\n", err)
		os.Exit(1)
	}

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

	dsn := fmt.Sprintf("postgres://policyscore:policyscore@%s:%s/policyscore?sslmode=disable", host, port.Port())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	testDB, err = sink.New(ctx, dsn, "", logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create DB: %v\n", err)
		os.Exit(1)
	}

	if err := testDB.RunMigrations(ctx, migrations.FS); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	testDB.Close(ctx)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestListChambersAndPersons(t *testing.T) {
	ctx := context.Background()

	_, err := testDB.Pool().Exec(ctx, `INSERT INTO chambers (id, slug) VALUES (1, 'commons') ON CONFLICT DO NOTHING`)
	require.NoError(t, err)
	_, err = testDB.Pool().Exec(ctx, `INSERT INTO persons (id, name) VALUES (1, 'Alice Example') ON CONFLICT DO NOTHING`)
	require.NoError(t, err)

	chambers, err := testDB.ListChambers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, chambers)
	assert.Equal(t, model.ChamberSlug("commons"), chambers[0].Slug)

	persons, err := testDB.ListPersons(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, persons)
}

func TestMaterializeVoteDistributionSwapsTable(t *testing.T) {
	ctx := context.Background()

	rows := []model.VoteDistribution{
		{
			PolicyID: 1, PersonID: 1, PeriodID: 1, ChamberID: 1, IsTarget: true,
			NumStrongVotesSame: 1, StartYear: 2020, EndYear: 2020,
			DistanceScore: 0, PolicyHash: "abcd1234",
		},
	}

	require.NoError(t, testDB.MaterializeVoteDistribution(ctx, rows, time.Now().UnixNano()))

	got, err := testDB.ListPreviousVoteDistribution(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "abcd1234", got[0].PolicyHash)

	require.NoError(t, testDB.MaterializeVoteDistribution(ctx, nil, time.Now().UnixNano()+1))
	got, err = testDB.ListPreviousVoteDistribution(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

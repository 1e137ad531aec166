package mongodb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/AI2HU/gosimon/internal/db"
	"github.com/AI2HU/gosimon/internal/lookup"
)

const (
	mongoImage            = "mongo:7"
	containerStartTimeout = 120 * time.Second
)

type note struct {
	Title string `bson:"title"`
	Tag   string `bson:"tag"`
}

// startMongo launches a throwaway MongoDB and returns its host:port
func startMongo(t *testing.T) string {
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        mongoImage,
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(containerStartTimeout),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "Failed to start MongoDB container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestIntegrationRegistryAndCollection(t *testing.T) {
	address := startMongo(t)
	ctx := context.Background()

	reg := db.NewRegistry(NewConnector())
	t.Cleanup(func() { _ = reg.Close(ctx) })

	_, err := reg.Connect(ctx, db.Descriptor{HostOrURI: address, Name: "gosimon_test"})
	require.NoError(t, err)
	require.NoError(t, reg.Ping(ctx))

	database, err := reg.Database("")
	require.NoError(t, err)

	notes := NewCollection[note](database, "notes", bson.D{{Key: "title", Value: 1}})

	for _, n := range []note{{Title: "b", Tag: "go"}, {Title: "a", Tag: "go"}, {Title: "c", Tag: "mongo"}} {
		_, err := notes.Create(ctx, n)
		require.NoError(t, err)
	}

	all, err := notes.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Title)

	res, err := notes.Get(ctx, "tag", "mongo")
	require.NoError(t, err)
	assert.Equal(t, lookup.Found, res.Kind)
	assert.Equal(t, "c", res.Document.Title)

	res, err = notes.Get(ctx, "tag", "go")
	require.NoError(t, err)
	assert.Equal(t, lookup.Ambiguous, res.Kind)

	res, err = notes.Get(ctx, "tag", "rust")
	require.NoError(t, err)
	assert.Equal(t, lookup.NotFound, res.Kind)

	found, err := notes.Search(ctx, "MON", SearchFilter{Fields: []string{"tag"}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "c", found[0].Title)
}

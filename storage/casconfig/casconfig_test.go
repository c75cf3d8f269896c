package casconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/rdfc/storage"
	"xdao.co/rdfc/storage/casregistry"
	_ "xdao.co/rdfc/storage/localfs"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := write(t, "cas.yaml", `
write_policy: all
backends:
  - name: localfs
    config:
      localfs-dir: /tmp/a
  - name: memory
    id: scratch
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "all", cfg.WritePolicy)
	require.Len(t, cfg.Backends, 2)
	assert.Equal(t, "/tmp/a", cfg.Backends[0].Config["localfs-dir"])
	assert.Equal(t, "scratch", cfg.Backends[1].ID)
}

func TestLoadFileJSON(t *testing.T) {
	path := write(t, "cas.json", `{"backends":[{"name":"memory"}]}`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.WritePolicy)
	assert.Equal(t, "memory", cfg.Backends[0].Name)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{Backends: []BackendConfig{{}}}.Validate())
	assert.Error(t, Config{Backends: []BackendConfig{{Name: "memory"}, {Name: "memory"}}}.Validate())
	assert.Error(t, Config{WritePolicy: "some", Backends: []BackendConfig{{Name: "memory"}}}.Validate())
	assert.NoError(t, Config{Backends: []BackendConfig{{Name: "memory"}, {Name: "memory", ID: "b"}}}.Validate())

	_, err := LoadFile(write(t, "bad.yml", "write_policy: [\n"))
	assert.Error(t, err)
}

func TestOpenPolicies(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := Config{
		WritePolicy: "all",
		Backends: []BackendConfig{
			{Name: "memory"},
			{Name: "localfs", Config: map[string]string{"localfs-dir": dir}},
		},
	}

	cas, closeFn, err := cfg.Open(casregistry.UsageDaemon, "")
	require.NoError(t, err)
	defer func() { _ = closeFn() }()
	require.IsType(t, storage.ReplicatingCAS{}, cas)

	id, ids, err := cas.(storage.ReplicatingCAS).PutAll(ctx, []byte("replicated"))
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.True(t, ids["localfs"].Equals(id))

	cfg.WritePolicy = "first"
	cas, _, err = cfg.Open(casregistry.UsageDaemon, "localfs")
	require.NoError(t, err)
	multi, ok := cas.(storage.MultiCAS)
	require.True(t, ok)
	require.Len(t, multi.Adapters, 2)

	// localfs was moved first and already holds the object
	got, err := multi.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "replicated", string(got))

	_, _, err = cfg.Open(casregistry.UsageDaemon, "missing")
	assert.Error(t, err)
}

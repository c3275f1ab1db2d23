package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/banshee-data/scan2bim/internal/api"
	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/pipeline"
	"github.com/banshee-data/scan2bim/internal/db"
	"github.com/banshee-data/scan2bim/internal/fsutil"
	"github.com/banshee-data/scan2bim/internal/httputil"
	"github.com/banshee-data/scan2bim/internal/jobs"
	"github.com/banshee-data/scan2bim/internal/monitoring"
	"github.com/banshee-data/scan2bim/internal/remote"
	"github.com/banshee-data/scan2bim/internal/testutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	bim.SetLogWriters(bim.LogWriters{})
	os.Exit(m.Run())
}

func writeXYZ(t *testing.T, path string, pts []bim.Vec3) {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("x y z\n")
	for _, p := range pts {
		buf.WriteString(strconv.FormatFloat(p[0], 'f', -1, 64) + " " +
			strconv.FormatFloat(p[1], 'f', -1, 64) + " " +
			strconv.FormatFloat(p[2], 'f', -1, 64) + "\n")
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []pipeline.Format
		wantErr bool
	}{
		{"ifc", []pipeline.Format{pipeline.FormatIFC}, false},
		{"ifc, STL,json,ifc", []pipeline.Format{pipeline.FormatIFC, pipeline.FormatSTL, pipeline.FormatJSON}, false},
		{"", nil, true},
		{" , ", nil, true},
		{"ifc,obj", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFormats(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_Commands(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), "version", nil, &out))
	assert.True(t, strings.HasPrefix(out.String(), "scan2bim "))

	out.Reset()
	require.NoError(t, run(context.Background(), "help", nil, &out))
	assert.Contains(t, out.String(), "Commands:")

	assert.Error(t, run(context.Background(), "frobnicate", nil, &out))
}

func TestLoadTuning(t *testing.T) {
	cfg, err := loadTuning("")
	testutil.AssertNoError(t, err)
	assert.Equal(t, 2, cfg.GetWorkers())

	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 4\nslab_z_step: 0.1\n"), 0o644))
	cfg, err = loadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.GetWorkers())
	assert.Equal(t, 0.1, cfg.GetSlabZStep())

	_, err = loadTuning(filepath.Join(t.TempDir(), "missing.json"))
	testutil.AssertError(t, err)
}

func TestConvert_WritesExports(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "planes.xyz")
	writeXYZ(t, input, testutil.TwoPlanes(0, 3, 4, 400))
	outDir := filepath.Join(dir, "out")

	var out bytes.Buffer
	err := runConvert(context.Background(), []string{"-format", "ifc,json,stl", "-out", outDir, input}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "2 slabs")

	for _, ext := range []string{".ifc", ".json", ".stl"} {
		info, err := os.Stat(filepath.Join(outDir, "planes"+ext))
		require.NoError(t, err, ext)
		assert.NotZero(t, info.Size(), ext)
	}
	ifcBody, err := os.ReadFile(filepath.Join(outDir, "planes.ifc"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(ifcBody), "IFCSLAB("))
}

func TestConvert_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, runConvert(context.Background(), nil, &out))
	assert.Error(t, runConvert(context.Background(), []string{"-format", "obj", "x.xyz"}, &out))
	assert.Error(t, runConvert(context.Background(), []string{filepath.Join(t.TempDir(), "missing.xyz")}, &out))
	assert.Error(t, runConvert(context.Background(), []string{"-nope"}, &out))
}

func TestSubmit_InProcess(t *testing.T) {
	d, err := db.NewDB(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer d.Close()

	mem := fsutil.NewMemoryFileSystem()
	store := jobs.NewStore(d, nil)
	runner := jobs.NewRunner(store, mem, jobs.RunnerConfig{Options: pipeline.DefaultOptions()})
	runner.Start(context.Background())
	defer runner.Stop()
	srv := api.NewServer(api.Config{Store: store, Runner: runner, Artifacts: fsutil.NewArtifacts(mem, "/data")})
	client := remote.New("http://in-process", httputil.HandlerClient{Handler: srv.ServeMux()})

	dir := t.TempDir()
	input := filepath.Join(dir, "planes.xyz")
	writeXYZ(t, input, testutil.TwoPlanes(0, 3, 4, 400))
	dst := filepath.Join(dir, "planes.json")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var out bytes.Buffer
	require.NoError(t, submit(ctx, client, input, pipeline.FormatJSON, dst, 10*time.Millisecond, &out))
	assert.Contains(t, out.String(), "uploaded")

	body, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"slabs"`)
}

func TestHealthService(t *testing.T) {
	h, err := startHealth("127.0.0.1:0")
	require.NoError(t, err)
	defer h.Stop()

	conn, err := grpc.NewClient(h.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	h.SetServing(true)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "scan2bim"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestConfigureLogging(t *testing.T) {
	var buf bytes.Buffer
	configureLogging(&buf, false, true)
	bim.Tracef("trace line")
	bim.Diagf("diag line")
	configureLogging(&buf, false, false)
	bim.Tracef("hidden")
	assert.Contains(t, buf.String(), "trace line")
	assert.Contains(t, buf.String(), "diag line")
	assert.NotContains(t, buf.String(), "hidden")
	bim.SetLogWriters(bim.LogWriters{})
}

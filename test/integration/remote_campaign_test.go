//go:build integration
// +build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/scenfuzz/internal/checkpoint"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/executor"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/fuzzing"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/report"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/scoring"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/sim"
	"github.com/GoSim-25-26J-441/scenfuzz/internal/statusd"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/config"
	"github.com/GoSim-25-26J-441/scenfuzz/pkg/logger"
)

func smallCampaignConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Parameters = config.Parameters{
		PEgo: config.Range{Low: 0, High: 2, Step: 1},
		PNpc: config.Range{Low: 0, High: 2, Step: 1},
		VNpc: config.Range{Low: 16, High: 24, Step: 4},
	}
	cfg.Campaign.ResultDir = dir
	cfg.Campaign.Store = "sqlite"
	cfg.Campaign.MaxIterations = 3
	cfg.Campaign.RNGSeed = 7
	cfg.Executor.Kind = "remote"
	return cfg
}

func TestIntegration_RemoteCampaignOverGRPC(t *testing.T) {
	dir := t.TempDir()
	cfg := smallCampaignConfig(dir)
	quiet := logger.New("error", io.Discard)

	world := sim.New(cfg.Executor.Kinematic, cfg.Campaign.RNGSeed)
	world.SetLogger(quiet)
	grpcServer, _ := executor.NewGRPCServer(world)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = grpcServer.Serve(lis) }()
	defer grpcServer.Stop()

	remote, err := executor.Dial(lis.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer remote.Close()
	remote.SetLogger(quiet)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := remote.WaitReady(ctx, 10*time.Second); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}

	store, err := checkpoint.NewStore(cfg.Campaign.Store, cfg.Campaign.ResultDir, cfg.Campaign.SQLitePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	scorer := scoring.NewScorer(scoring.NewDetector(cfg.Conflict))
	campaign, err := fuzzing.NewCampaign(cfg, executor.NewScoring(remote, scorer), store)
	if err != nil {
		t.Fatal(err)
	}
	campaign.SetLogger(quiet)

	status := httptest.NewServer(statusd.NewHTTPServer(campaign).Handler())
	defer status.Close()

	res, err := campaign.Run(ctx)
	if err != nil {
		t.Fatalf("campaign failed: %v", err)
	}
	if res.Stats.Executions < 8 {
		t.Fatalf("expected at least the initial sweep, got %d executions", res.Stats.Executions)
	}
	if got := len(res.Population) + countBelow(res, 8); got != 8 {
		t.Errorf("expected 8 initial seeds accounted for, got %d", got)
	}

	resp, err := http.Get(status.URL + "/v1/campaign")
	if err != nil {
		t.Fatalf("status request: %v", err)
	}
	defer resp.Body.Close()
	var snap fuzzing.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.State != fuzzing.StateDone {
		t.Errorf("expected state done, got %s", snap.State)
	}
	if snap.CampaignID != res.CampaignID {
		t.Errorf("expected campaign id %s, got %s", res.CampaignID, snap.CampaignID)
	}

	if err := report.Export(dir, res.Population, res.Findings); err != nil {
		t.Fatalf("export: %v", err)
	}
	collisions, err := report.ReadSeeds(dir + "/" + report.CollisionFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(collisions) != len(res.Findings.Collision) {
		t.Errorf("expected %d exported collisions, got %d", len(res.Findings.Collision), len(collisions))
	}
}

func countBelow(res *fuzzing.Result, round int) int {
	n := 0
	for _, s := range res.Findings.Collision {
		if s.RoundID < round {
			n++
		}
	}
	return n
}

package main

import (
	"github.com/ja7ad/procwatch/internal/config"
	"github.com/ja7ad/procwatch/internal/logger"
	"github.com/ja7ad/procwatch/pkg/energy"
	"github.com/ja7ad/procwatch/pkg/probe"
	"github.com/ja7ad/procwatch/pkg/snapshot"
)

// stack is the wired snapshot pipeline.
type stack struct {
	builder *snapshot.Builder
	energy  *energy.Estimator // nil when disabled
	probes  []probe.Probe
}

func newStack(cfg *config.AppConfig, obs snapshot.Observer) (*stack, error) {
	set, err := probe.DefaultSet(probe.Options{
		Resource:       cfg.Probes.Resource,
		Registry:       cfg.Probes.Registry,
		DeepTask:       cfg.Probes.DeepTask,
		CmdlineTimeout: cfg.Probes.CmdlineTimeout.Duration,
		CPUSmoothing:   cfg.Probes.CPUSmoothing,
	})
	if err != nil {
		return nil, err
	}

	st := &stack{probes: set}
	opts := []snapshot.Option{
		snapshot.WithLogger(logger.New("snapshot")),
		snapshot.WithObserver(obs),
	}
	if cfg.Snapshot.Network {
		opts = append(opts, snapshot.WithConnCounter(probe.Connections()))
	}
	if cfg.Energy.Enabled {
		st.energy = energy.New(&energy.Config{
			PIdle:   cfg.Energy.PIdle,
			PMax:    cfg.Energy.PMax,
			Gamma:   cfg.Energy.Gamma,
			ER:      cfg.Energy.ER,
			EW:      cfg.Energy.EW,
			EMemRSS: cfg.Energy.EMemRSS,
			Alpha:   cfg.Energy.Alpha,
		})
		opts = append(opts, snapshot.WithEnergy(st.energy))
	}

	st.builder = snapshot.New(probe.Pids(), set, &snapshot.Config{
		Cap:           cfg.Snapshot.Cap,
		BatchSize:     cfg.Snapshot.BatchSize,
		NetworkBudget: cfg.Snapshot.NetworkBudget.Duration,
	}, opts...)
	return st, nil
}

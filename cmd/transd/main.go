// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command transd is the server daemon: it wires a reactor.Reactor to a
// business.Worker over the two mailboxes and runs until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DaneJoe001/ProjectTrans-sub001/business"
	"github.com/DaneJoe001/ProjectTrans-sub001/config"
	"github.com/DaneJoe001/ProjectTrans-sub001/logx"
	"github.com/DaneJoe001/ProjectTrans-sub001/reactor"
	"github.com/DaneJoe001/ProjectTrans-sub001/store"
)

func main() {
	var configFile string

	root := &cobra.Command{
		Use:   "transd",
		Short: "transd runs the file-transfer server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configFile)
		},
	}
	root.Flags().StringVar(&configFile, "config", "", "path to a YAML/TOML/JSON config file")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.LoadServer(configFile)
	if err != nil {
		return err
	}

	log := logx.New(logx.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Component: "transd"})

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Error().Err(err).Msg("create data directory")
		return err
	}

	fileRepo, err := store.NewBuntFileRepository(cfg.DBPath + ".files")
	if err != nil {
		log.Error().Err(err).Msg("open file_info store")
		return err
	}
	defer fileRepo.Close()

	blockRepo, err := store.NewBuntBlockRepository(cfg.DBPath + ".blocks")
	if err != nil {
		log.Error().Err(err).Msg("open block_info store")
		return err
	}
	defer blockRepo.Close()

	files := business.NewDiskFileStore(filepath.Clean(cfg.DataDir), fileRepo)
	defer files.Close()

	r, err := reactor.New(log,
		reactor.WithListenAddr(cfg.ListenAddr),
		reactor.WithBacklog(cfg.Backlog),
		reactor.WithMaxPayloadLen(cfg.MaxPayloadLen),
		reactor.WithMailboxCapacity(cfg.MailboxCapacity),
		reactor.WithReadBufferSize(cfg.ReadBufferSize),
		reactor.WithMaxConnections(cfg.MaxConnections),
	)
	if err != nil {
		log.Error().Err(err).Msg("construct reactor")
		return err
	}

	worker := business.NewWorker(log, r.ToBusiness, r.ToClient(), files, fileRepo, blockRepo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go worker.Run(ctx)

	addr, _ := r.Addr()
	log.Info().Str("listen_addr", addr).Msg("transd listening")
	return r.Run(ctx)
}

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command transc is the headless client: it wires a transport.Client to a
// scheduler.Scheduler and exposes one subcommand per operation. A GUI
// front-end is an external collaborator and out of scope here.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/DaneJoe001/ProjectTrans-sub001/config"
	"github.com/DaneJoe001/ProjectTrans-sub001/logx"
	"github.com/DaneJoe001/ProjectTrans-sub001/scheduler"
	"github.com/DaneJoe001/ProjectTrans-sub001/store"
	"github.com/DaneJoe001/ProjectTrans-sub001/timer"
	"github.com/DaneJoe001/ProjectTrans-sub001/transport"
	"github.com/DaneJoe001/ProjectTrans-sub001/urlscheme"
)

func main() {
	var configFile string

	root := &cobra.Command{
		Use:   "transc",
		Short: "transc drives file transfers against a transd server",
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML/TOML/JSON config file")

	root.AddCommand(downloadCmd(&configFile), resumeCmd(&configFile))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func downloadCmd(configFile *string) *cobra.Command {
	var fileID int64
	var dest string

	cmd := &cobra.Command{
		Use:   "download <danejoe-url>",
		Short: "download one file and block until it completes or fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := urlscheme.Parse(args[0])
			if err != nil {
				return err
			}
			taskID := time.Now().UnixNano()

			env, err := newEnv(*configFile)
			if err != nil {
				return err
			}
			defer env.Close()

			if dest == "" {
				dest = filepath.Join(env.cfg.DataDir, fmt.Sprintf("%d", fileID))
			}
			ctx := context.Background()
			if err := env.sched.StartDownload(ctx, parsed.Endpoint, fileID, taskID, dest); err != nil {
				return err
			}
			return waitForCompletion(ctx, env, fileID)
		},
	}
	cmd.Flags().Int64Var(&fileID, "file-id", 0, "remote file_id to download")
	cmd.Flags().StringVar(&dest, "dest", "", "destination path (defaults under data_dir)")
	_ = cmd.MarkFlagRequired("file-id")
	return cmd
}

func resumeCmd(configFile *string) *cobra.Command {
	var fileID int64

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "resume one paused download, or rescan all unfinished downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(*configFile)
			if err != nil {
				return err
			}
			defer env.Close()
			if fileID != 0 {
				return env.sched.ResumeDownload(context.Background(), fileID)
			}
			return env.sched.ResumeAll(context.Background())
		},
	}
	cmd.Flags().Int64Var(&fileID, "file-id", 0, "resume only this file (default: resume everything unfinished)")
	return cmd
}

func waitForCompletion(ctx context.Context, env *clientEnv, fileID int64) error {
	for {
		info, ok, err := env.fileRepo.Get(ctx, fileID)
		if err != nil {
			return err
		}
		if ok {
			switch info.State {
			case store.FileStateCompleted:
				fmt.Printf("file %d completed, md5=%s\n", fileID, info.MD5Code)
				return nil
			case store.FileStateFailed:
				return fmt.Errorf("transc: file %d failed", fileID)
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// clientEnv bundles the long-lived collaborators one transc invocation
// needs, closed together once the subcommand returns.
type clientEnv struct {
	cfg       config.ClientConfig
	fileRepo  store.FileRepository
	blockRepo store.BlockRepository
	wheel     *timer.Wheel
	client    *transport.Client
	sched     *scheduler.Scheduler
}

func newEnv(configFile string) (*clientEnv, error) {
	cfg, err := config.LoadClient(configFile)
	if err != nil {
		return nil, err
	}
	log := logx.New(logx.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Component: "transc"})

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	fileRepo, err := store.NewBuntFileRepository(cfg.DBPath + ".files")
	if err != nil {
		return nil, err
	}
	blockRepo, err := store.NewBuntBlockRepository(cfg.DBPath + ".blocks")
	if err != nil {
		fileRepo.Close()
		return nil, err
	}

	wheel := timer.New()
	client := transport.NewClient(log, wheel, transport.WithDialTimeout(cfg.DialTimeout), transport.WithDefaultTimeout(cfg.RequestTimeout))
	sched := scheduler.New(log, client, fileRepo, blockRepo, scheduler.WithBlockSize(cfg.BlockSize), scheduler.WithWorkerCount(cfg.WorkerCount), scheduler.WithQueueDepth(cfg.QueueDepth))
	sched.Start(context.Background())

	return &clientEnv{cfg: cfg, fileRepo: fileRepo, blockRepo: blockRepo, wheel: wheel, client: client, sched: sched}, nil
}

func (e *clientEnv) Close() {
	e.sched.Stop()
	e.client.Close()
	e.wheel.Stop()
	if c, ok := e.fileRepo.(interface{ Close() error }); ok {
		c.Close()
	}
	if c, ok := e.blockRepo.(interface{ Close() error }); ok {
		c.Close()
	}
}

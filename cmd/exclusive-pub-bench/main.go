/*
 *
 * Copyright 2025 Real Logic Ltd.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// Command exclusive-pub-bench drives an ExclusivePublication against a
// throwaway log file and reports throughput and back-pressure behavior: a
// small, runnable demonstration of the hot path rather than a production
// tool.
package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/real-logic/aeron-go/internal/logbuffer"
	"github.com/real-logic/aeron-go/localconductor"
	"github.com/real-logic/aeron-go/publication"
)

type options struct {
	LogPath        string `mapstructure:"logPath"`
	Channel        string `mapstructure:"channel"`
	StreamID       int32  `mapstructure:"streamId"`
	SessionID      int32  `mapstructure:"sessionId"`
	RegistrationID int64  `mapstructure:"registrationId"`
	TermLength     int32  `mapstructure:"termLength"`
	MTULength      int32  `mapstructure:"mtu"`
	MessageLength  int32  `mapstructure:"messageLength"`
	Count          int    `mapstructure:"count"`
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:   "exclusive-pub-bench",
		Short: "Offer messages through an ExclusivePublication and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := root.Flags()
	flags.StringVar(&opts.LogPath, "log-path", "", "path to the log file to create (default: a temp file)")
	flags.StringVar(&opts.Channel, "channel", "aeron:ipc", "channel URI recorded on the publication")
	flags.Int32Var(&opts.StreamID, "stream-id", 10, "stream id")
	flags.Int32Var(&opts.SessionID, "session-id", 1, "session id")
	flags.Int64Var(&opts.RegistrationID, "registration-id", 1, "registration id passed to the conductor")
	flags.Int32Var(&opts.TermLength, "term-length", 1024*1024, "term buffer length in bytes, must be a power of two")
	flags.Int32Var(&opts.MTULength, "mtu", 4096, "maximum transmission unit in bytes")
	flags.Int32Var(&opts.MessageLength, "message-length", 288, "message length in bytes to offer repeatedly")
	flags.IntVar(&opts.Count, "count", 1_000_000, "number of messages to offer")
	flags.String("config", "", "optional config file (json/yaml/toml) overriding the flags above")

	root.PreRunE = func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			return nil
		}
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", configPath, err)
		}
		return viper.Unmarshal(opts)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("constructing logger: %w", err)
	}
	defer logger.Sync()

	path := opts.LogPath
	if path == "" {
		f, err := os.CreateTemp("", "exclusive-pub-bench-*.log")
		if err != nil {
			return fmt.Errorf("creating temp log file: %w", err)
		}
		path = f.Name()
		f.Close()
		os.Remove(path)
		defer os.Remove(path)
	}

	header := make([]byte, logbuffer.HeaderLength)
	binary.LittleEndian.PutUint32(header[12:], uint32(opts.SessionID))
	binary.LittleEndian.PutUint32(header[16:], uint32(opts.StreamID))

	logBuffers, err := logbuffer.CreateLogBuffers(path, opts.TermLength, 0, opts.MTULength, header)
	if err != nil {
		return fmt.Errorf("creating log buffers: %w", err)
	}
	defer logBuffers.Close()

	conductor := localconductor.New(logger, 10*time.Second)
	conductor.Register(opts.RegistrationID, logBuffers)

	// positionWindow models how far a consumer is allowed to lag the
	// writer; the loop below slides positionLimit forward after every
	// accepted offer to simulate a consumer draining the log at the
	// writer's own pace, so the publication never stalls on back-pressure.
	const positionWindow = int64(1) << 20
	positionLimit := publication.NewAtomicPosition(positionWindow)

	pub, err := publication.NewExclusivePublication(
		opts.Channel, opts.StreamID, opts.SessionID, opts.RegistrationID, logBuffers, positionLimit, conductor)
	if err != nil {
		return fmt.Errorf("constructing publication: %w", err)
	}
	logBuffers.MetaDataBuffer().SetTimeOfLastStatusMessage(time.Now().UnixNano())

	rotations := 0
	pub.SetRotationListener(func(previousTermID, newTermID, newPartitionIndex int32) {
		rotations++
		logger.Info("term rotated",
			zap.Int32("previousTermID", previousTermID),
			zap.Int32("newTermID", newTermID),
			zap.Int32("newPartitionIndex", newPartitionIndex))
	})

	msg := make([]byte, opts.MessageLength)
	for i := range msg {
		msg[i] = byte(i)
	}

	var backPressured, adminActions int
	consecutiveBackPressure := 0
	start := time.Now()
	offered := 0
offerLoop:
	for offered < opts.Count {
		result := pub.Offer(msg, 0, int32(len(msg)), nil)
		switch {
		case result > 0:
			offered++
			consecutiveBackPressure = 0
			positionLimit.Set(result + positionWindow)
			logBuffers.MetaDataBuffer().SetTimeOfLastStatusMessage(time.Now().UnixNano())
		case result == publication.BackPressured || result == publication.NotConnected:
			backPressured++
			consecutiveBackPressure++
			positionLimit.Set(pub.Position() + positionWindow)
			logBuffers.MetaDataBuffer().SetTimeOfLastStatusMessage(time.Now().UnixNano())
			if consecutiveBackPressure > 1000 {
				logger.Warn("stopping after sustained back pressure", zap.Int("offered", offered))
				break offerLoop
			}
		case result == publication.AdminAction:
			adminActions++
			consecutiveBackPressure = 0
		case result == publication.Closed:
			return fmt.Errorf("publication closed unexpectedly")
		}
	}
	elapsed := time.Since(start)

	pub.Close()

	fmt.Printf("offered %d messages of %d bytes in %s (%.0f msg/s)\n",
		offered, opts.MessageLength, elapsed, float64(offered)/elapsed.Seconds())
	fmt.Printf("rotations=%d backPressured=%d adminActions=%d\n", rotations, backPressured, adminActions)
	return nil
}

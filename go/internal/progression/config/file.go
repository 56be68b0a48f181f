package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/progression/go/internal/progression/dispatch"
	"github.com/mcdev12/progression/go/internal/progression/orchestrator"
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
	"github.com/mcdev12/progression/go/internal/progression/stream"
)

type StreamSettings struct {
	Name            string        `yaml:"name"`
	Description     string        `yaml:"description"`
	SubjectPrefix   string        `yaml:"subject_prefix"`
	MaxAge          time.Duration `yaml:"max_age"`
	MaxMsgs         int64         `yaml:"max_msgs"`
	Replicas        int           `yaml:"replicas"`
	DuplicateWindow time.Duration `yaml:"duplicate_window"`
}

func (s StreamSettings) Stream() stream.Config {
	return stream.Config{
		Name:            s.Name,
		Description:     s.Description,
		SubjectPrefix:   s.SubjectPrefix,
		MaxAge:          s.MaxAge,
		MaxMsgs:         s.MaxMsgs,
		Replicas:        s.Replicas,
		DuplicateWindow: s.DuplicateWindow,
	}
}

type ConsumerSettings struct {
	Durable         string        `yaml:"durable"`
	Workers         int           `yaml:"workers"`
	BufferSize      int           `yaml:"buffer_size"`
	MaxDeliver      int           `yaml:"max_deliver"`
	AckWait         time.Duration `yaml:"ack_wait"`
	MaxAckPending   int           `yaml:"max_ack_pending"`
	RedeliveryDelay time.Duration `yaml:"redelivery_delay"`
}

type EnrichmentSettings struct {
	Parallelism    int                      `yaml:"parallelism"`
	DefaultTimeout time.Duration            `yaml:"default_timeout"`
	Timeouts       map[string]time.Duration `yaml:"timeouts"`
}

type DispatchSettings struct {
	SendTimeout time.Duration `yaml:"send_timeout"`
}

type OpsSettings struct {
	RecentLimit    int           `yaml:"recent_limit"`
	StaleAfter     time.Duration `yaml:"stale_after"`
	FailureWindow  time.Duration `yaml:"failure_window"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	StatsInterval  time.Duration `yaml:"stats_interval"`
}

// File is the routing and tuning file.
type File struct {
	Streams struct {
		Inbound  StreamSettings `yaml:"inbound"`
		Commands StreamSettings `yaml:"commands"`
		Public   StreamSettings `yaml:"public"`
	} `yaml:"streams"`
	Consumer   ConsumerSettings   `yaml:"consumer"`
	Enrichment EnrichmentSettings `yaml:"enrichment"`
	Dispatch   DispatchSettings   `yaml:"dispatch"`
	Ops        OpsSettings        `yaml:"ops"`
}

// Defaults returns the settings used when no file is present.
func Defaults() File {
	var f File
	f.Streams.Inbound = StreamSettings{
		Name:            "PROGRESSION_EVENTS",
		Description:     "Inbound events the orchestrator reacts to",
		SubjectPrefix:   "progression.events",
		MaxAge:          7 * 24 * time.Hour,
		MaxMsgs:         1_000_000,
		Replicas:        1,
		DuplicateWindow: 2 * time.Minute,
	}
	f.Streams.Commands = StreamSettings{
		Name:            "PROGRESSION_COMMANDS",
		Description:     "Commands addressed to other contexts",
		SubjectPrefix:   "progression.commands",
		MaxAge:          7 * 24 * time.Hour,
		MaxMsgs:         1_000_000,
		Replicas:        1,
		DuplicateWindow: 24 * time.Hour,
	}
	f.Streams.Public = StreamSettings{
		Name:            "PROGRESSION_PUBLIC",
		Description:     "Public integration events",
		SubjectPrefix:   "progression.public",
		MaxAge:          7 * 24 * time.Hour,
		MaxMsgs:         1_000_000,
		Replicas:        1,
		DuplicateWindow: 24 * time.Hour,
	}

	cc := orchestrator.DefaultConsumerConfig()
	f.Consumer = ConsumerSettings{
		Durable:         cc.Durable,
		Workers:         cc.Workers,
		BufferSize:      cc.BufferSize,
		MaxDeliver:      cc.MaxDeliver,
		AckWait:         cc.AckWait,
		MaxAckPending:   cc.MaxAckPending,
		RedeliveryDelay: cc.RedeliveryDelay,
	}
	f.Enrichment = EnrichmentSettings{
		Parallelism:    4,
		DefaultTimeout: 3 * time.Second,
		Timeouts:       map[string]time.Duration{},
	}
	f.Dispatch = DispatchSettings{SendTimeout: 5 * time.Second}
	f.Ops = OpsSettings{
		RecentLimit:    50,
		StaleAfter:     5 * time.Minute,
		FailureWindow:  time.Hour,
		AllowedOrigins: []string{"*"},
		StatsInterval:  5 * time.Second,
	}
	return f
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (File, error) {
	f := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return File{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks the settings that would otherwise fail late.
func (f File) Validate() error {
	var errs []error
	for name, s := range map[string]StreamSettings{
		"inbound":  f.Streams.Inbound,
		"commands": f.Streams.Commands,
		"public":   f.Streams.Public,
	} {
		if s.Name == "" || s.SubjectPrefix == "" {
			errs = append(errs, fmt.Errorf("streams.%s: name and subject_prefix are required", name))
		}
	}
	if f.Consumer.Workers <= 0 {
		errs = append(errs, errors.New("consumer.workers must be positive"))
	}
	known := map[readmodel.QueryKind]bool{}
	for _, k := range readmodel.AllQueryKinds() {
		known[k] = true
	}
	for k := range f.Enrichment.Timeouts {
		if !known[readmodel.QueryKind(k)] {
			errs = append(errs, fmt.Errorf("enrichment.timeouts: unknown query kind %q", k))
		}
	}
	return errors.Join(errs...)
}

func (f File) ConsumerConfig() orchestrator.ConsumerConfig {
	return orchestrator.ConsumerConfig{
		Stream:          f.Streams.Inbound.Name,
		Durable:         f.Consumer.Durable,
		FilterSubject:   f.Streams.Inbound.SubjectPrefix + ".>",
		Workers:         f.Consumer.Workers,
		BufferSize:      f.Consumer.BufferSize,
		MaxDeliver:      f.Consumer.MaxDeliver,
		AckWait:         f.Consumer.AckWait,
		MaxAckPending:   f.Consumer.MaxAckPending,
		RedeliveryDelay: f.Consumer.RedeliveryDelay,
	}
}

func (f File) JetStream() dispatch.JetStreamConfig {
	return dispatch.JetStreamConfig{
		CommandSubjectPrefix: f.Streams.Commands.SubjectPrefix,
		CommandStream:        f.Streams.Commands.Name,
		PublicSubjectPrefix:  f.Streams.Public.SubjectPrefix,
		PublicStream:         f.Streams.Public.Name,
	}
}

// QueryTimeouts returns the per-kind overrides of the default timeout.
func (f File) QueryTimeouts() map[readmodel.QueryKind]time.Duration {
	out := make(map[readmodel.QueryKind]time.Duration, len(f.Enrichment.Timeouts))
	for k, d := range f.Enrichment.Timeouts {
		out[readmodel.QueryKind(k)] = d
	}
	return out
}

// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package corebase is the module root: a thin facade exposing the Config
// type. No subsystem constructor takes a Config, and the shared zerolog
// sink for fatal/logic-error reporting lives in package corebaselog. The library never
// reads this configuration implicitly -- config values flow in through
// explicit constructor arguments, so corebase has no hidden global
// configuration dependency; only the demo binary under cmd/corebasedemo
// loads Config from the environment.
package corebase

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/corebase-go/corebase/internal/cpuid"
)

// Config holds the tunables spec.md leaves to "the implementation decides":
// job-system worker count, the hash map's default group size, and whether
// SIMD dispatch is forced to its scalar fallback regardless of detected CPU
// features.
type Config struct {
	JobWorkerCount    int  `mapstructure:"job_worker_count"`
	HashMapGroupSize  int  `mapstructure:"hashmap_group_size"`
	ForceScalarSIMD   bool `mapstructure:"force_scalar_simd"`
	RingQueueCapacity int  `mapstructure:"ring_queue_capacity"`
}

// DefaultConfig returns corebase's built-in defaults: four job workers
// (job.NewSystem separately raises a zero or negative count to one), a
// 32-slot hash map group, SIMD auto-detected, and an 8192-slot ring queue.
func DefaultConfig() Config {
	return Config{
		JobWorkerCount:    4,
		HashMapGroupSize:  32,
		ForceScalarSIMD:   false,
		RingQueueCapacity: 8192,
	}
}

// LoadConfig reads Config from environment variables prefixed COREBASE_
// (e.g. COREBASE_JOB_WORKER_COUNT) and, if present, a YAML file at path,
// layered over DefaultConfig. This mirrors the env-var-plus-optional-file
// layering the pack's service-shaped repos use viper for.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("job_worker_count", def.JobWorkerCount)
	v.SetDefault("hashmap_group_size", def.HashMapGroupSize)
	v.SetDefault("force_scalar_simd", def.ForceScalarSIMD)
	v.SetDefault("ring_queue_capacity", def.RingQueueCapacity)

	v.SetEnvPrefix("corebase")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Apply pushes the SIMD-relevant portion of cfg into the process-wide
// internal/cpuid feature table. It is safe to call more than once; the
// last call wins.
func (c Config) Apply() {
	if c.ForceScalarSIMD {
		cpuid.ForceScalar()
	} else {
		cpuid.Reset()
	}
}

// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corebase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 4, cfg.JobWorkerCount)
	require.Equal(t, 32, cfg.HashMapGroupSize)
	require.False(t, cfg.ForceScalarSIMD)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("COREBASE_JOB_WORKER_COUNT", "16")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, 16, cfg.JobWorkerCount)
}

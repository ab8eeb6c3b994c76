/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"testing"
)

// fakeSecrets is an in-memory SecretStore.
type fakeSecrets struct {
	values map[string]string
}

func (f *fakeSecrets) Get(service, key string) (string, error) {
	v, ok := f.values[service+"/"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (f *fakeSecrets) Set(service, key, value string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[service+"/"+key] = value
	return nil
}

func (f *fakeSecrets) Delete(service, key string) error {
	delete(f.values, service+"/"+key)
	return nil
}

func useFakeSecrets(t *testing.T) *fakeSecrets {
	t.Helper()
	fake := &fakeSecrets{}
	prev := SetSecretStore(fake)
	t.Cleanup(func() { SetSecretStore(prev) })
	return fake
}

func TestEnvOverridesPostgresDSN(t *testing.T) {
	useFakeSecrets(t)
	old := os.Getenv(EnvPostgresDSN)
	_ = os.Setenv(EnvPostgresDSN, "postgres://localhost:5432/mangastudio")
	t.Cleanup(func() { _ = os.Setenv(EnvPostgresDSN, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Storage.PostgresDSN, "postgres://localhost:5432/mangastudio"; got != want {
		t.Fatalf("Storage.PostgresDSN = %q, want %q", got, want)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	useFakeSecrets(t)
	oldLevel := os.Getenv(EnvLogLevel)
	oldFmt := os.Getenv(EnvLogFormat)
	oldFile := os.Getenv(EnvLogFile)
	_ = os.Setenv(EnvLogLevel, "error")
	_ = os.Setenv(EnvLogFormat, "json")
	_ = os.Setenv(EnvLogFile, "/tmp/mgs.log")
	t.Cleanup(func() {
		_ = os.Setenv(EnvLogLevel, oldLevel)
		_ = os.Setenv(EnvLogFormat, oldFmt)
		_ = os.Setenv(EnvLogFile, oldFile)
	})
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || cfg.Logging.File != "/tmp/mgs.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestMergeIncludesAIAndStorage(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.AI.BaseURL = "https://proxy.example/v1beta"
	src.AI.TextModel = "custom-model"
	src.AI.TimeoutMs = 5000
	src.Storage.DataDir = "/var/lib/mangastudio"
	src.Logging.Level = "DEBUG"
	mergeInto(&dst, &src)
	if dst.AI.BaseURL != "https://proxy.example/v1beta" || dst.AI.TextModel != "custom-model" || dst.AI.TimeoutMs != 5000 {
		t.Fatalf("ai fields not merged: %#v", dst.AI)
	}
	if dst.Storage.DataDir != "/var/lib/mangastudio" {
		t.Fatalf("storage fields not merged: %#v", dst.Storage)
	}
	if dst.Logging.Level != "debug" {
		t.Fatalf("logging level should merge lowercased, got %q", dst.Logging.Level)
	}
}

func TestAPIKeyEnvWinsOverKeyring(t *testing.T) {
	fake := useFakeSecrets(t)
	_ = fake.Set("MangaStudio", "generative_api_key", "from-keyring")

	old := os.Getenv(EnvAPIKey)
	_ = os.Setenv(EnvAPIKey, "from-env")
	t.Cleanup(func() { _ = os.Setenv(EnvAPIKey, old) })

	_, key, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if key != "from-env" {
		t.Fatalf("api key = %q, want env value", key)
	}

	_ = os.Setenv(EnvAPIKey, "")
	_, key, err = Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if key != "from-keyring" {
		t.Fatalf("api key = %q, want keyring value", key)
	}
}

func TestDataDirDefaultsWhenUnset(t *testing.T) {
	useFakeSecrets(t)
	old := os.Getenv(EnvDataDir)
	_ = os.Setenv(EnvDataDir, "")
	t.Cleanup(func() { _ = os.Setenv(EnvDataDir, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.DataDir == "" {
		t.Fatalf("data dir should default to a per-user path")
	}
}

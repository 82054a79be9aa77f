package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mocap-bvh-csv/internal/plot"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "walk_rot.csv")
	if err := os.WriteFile(src, []byte("time,Hips.z,Hips.x\n0,1,2\n0.1,3,4\n0.2,5,1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	if err := run([]string{"-y", "Hips.z, Hips.x", src}, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "walk_rot.png")); err != nil {
		t.Fatalf("plot not written: %v", err)
	}

	err := run([]string{"-y", "Spine.z", "-o", filepath.Join(dir, "x.svg"), src}, &out, &errOut)
	if !errors.Is(err, plot.ErrUnknownColumn) {
		t.Fatalf("error mismatch: got=%v", err)
	}
	if err := run([]string{src}, &out, &errOut); err == nil {
		t.Fatalf("missing -y accepted")
	}
}

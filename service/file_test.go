// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/luxfi/wirerpc"
)

func commandByName(t *testing.T, cmds []rpc.CommandDescriptor, name string) rpc.CommandDescriptor {
	t.Helper()
	for _, c := range cmds {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no command named %q", name)
	return rpc.CommandDescriptor{}
}

func TestFileUploadDownloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(dir, true)
	cmds := f.Commands()

	upload := commandByName(t, cmds, "upload")
	in := rpc.NewSliceStream([]any{[]byte("hello "), []byte("world")})
	if _, err := upload.Handler(context.Background(), []any{"greeting.txt"}, in); err != nil {
		t.Fatalf("upload: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "greeting.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("got %q, want %q", data, "hello world")
	}

	download := commandByName(t, cmds, "download")
	res, err := download.Handler(context.Background(), []any{"greeting.txt"}, nil)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	stream := res.(*rpc.Stream)

	var buf bytes.Buffer
	for {
		v, err := stream.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		buf.Write(v.([]byte))
	}
	if buf.String() != "hello world" {
		t.Errorf("got %q, want %q", buf.String(), "hello world")
	}
}

func TestFileListDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	f := NewFile(dir, true)
	listDir := commandByName(t, f.Commands(), "list_dir")
	res, err := listDir.Handler(context.Background(), []any{"."}, nil)
	if err != nil {
		t.Fatalf("list_dir: %v", err)
	}
	names := res.([]string)
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.txt" {
		t.Errorf("got %v, want [a.txt b.txt]", names)
	}
}

func TestFileSymlinkEscapeRejected(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("shh"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	link := filepath.Join(root, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	f := NewFile(root, true)
	download := commandByName(t, f.Commands(), "download")
	if _, err := download.Handler(context.Background(), []any{"escape/secret.txt"}, nil); err == nil {
		t.Error("expected checkPath to reject a symlink escape")
	}
}

func TestFileUnsafeRootAllowsEscape(t *testing.T) {
	root := t.TempDir()
	f := NewFile(root, false)
	full, err := f.checkPath("../whatever")
	if err != nil {
		t.Fatalf("checkPath with safeRoot=false should not error: %v", err)
	}
	if filepath.Base(full) != "whatever" {
		t.Errorf("got %q", full)
	}
}

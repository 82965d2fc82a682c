// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/luxfi/wirerpc"
)

// File exposes a root-confined file transfer service: upload (input
// streaming), download (output streaming), and list_dir, grounded on the
// root_path/safe_root contract referenced by
// tests/test_file_service.py and spec.md §8's file.upload scenario.
type File struct {
	root     string
	safeRoot bool
}

// NewFile builds the "file" service rooted at root. If safeRoot is true,
// every path is resolved and confined under root, rejecting symlink
// escapes (test_symlink_escape).
func NewFile(root string, safeRoot bool) *File {
	return &File{root: root, safeRoot: safeRoot}
}

func (f *File) Name() string { return "file" }
func (f *File) Doc() string  { return "root-confined file transfer" }

func (f *File) Commands() []rpc.CommandDescriptor {
	return []rpc.CommandDescriptor{
		{
			Name: "upload",
			Doc:  "write a stream of byte chunks to path, in order, overwriting any existing file",
			Params: []rpc.ParamSpec{
				rpc.Param("data", rpc.Stream(rpc.Bytes())),
				rpc.Param("path", rpc.Str()),
			},
			Returns: rpc.None(),
			Handler: f.upload,
		},
		{
			Name: "download",
			Doc:  "read path as a stream of byte chunks",
			Params: []rpc.ParamSpec{
				rpc.Param("path", rpc.Str()),
			},
			Returns:         rpc.Stream(rpc.Bytes()),
			OutputStreaming: true,
			Handler:         f.download,
		},
		{
			Name: "list_dir",
			Doc:  "list entry names directly under path",
			Params: []rpc.ParamSpec{
				rpc.Param("path", rpc.Str()).WithDefault("."),
			},
			Returns: rpc.List(rpc.Str()),
			Handler: f.listDir,
		},
	}
}

// checkPath resolves rel under the service root, rejecting any result
// that escapes the root (directly or via a symlink) when safeRoot is set.
func (f *File) checkPath(rel string) (string, error) {
	joined := filepath.Join(f.root, rel)
	if !f.safeRoot {
		return joined, nil
	}

	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if os.IsNotExist(err) {
			// not-yet-created upload target: resolve its parent directory
			// and reject a dangling symlink at the target itself
			parent, perr := filepath.EvalSymlinks(filepath.Dir(joined))
			if perr != nil {
				return "", perr
			}
			if fi, lerr := os.Lstat(joined); lerr == nil && fi.Mode()&os.ModeSymlink != 0 {
				return "", &os.PathError{Op: "check_path", Path: rel, Err: os.ErrPermission}
			}
			resolved = filepath.Join(parent, filepath.Base(joined))
		} else {
			return "", err
		}
	}

	rootResolved, err := filepath.EvalSymlinks(f.root)
	if err != nil {
		rootResolved = f.root
	}

	rel2, err := filepath.Rel(rootResolved, resolved)
	if err != nil || rel2 == ".." || strings.HasPrefix(rel2, ".."+string(os.PathSeparator)) {
		return "", &os.PathError{Op: "check_path", Path: rel, Err: os.ErrPermission}
	}
	return joined, nil
}

func (f *File) upload(ctx context.Context, args []any, in *rpc.Stream) (any, error) {
	path, _ := args[0].(string)
	full, err := f.checkPath(path)
	if err != nil {
		return nil, err
	}

	fh, err := os.Create(full)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	for {
		v, err := in.Next(ctx)
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		chunk, _ := v.([]byte)
		if _, err := fh.Write(chunk); err != nil {
			return nil, err
		}
	}
}

func (f *File) download(ctx context.Context, args []any, in *rpc.Stream) (any, error) {
	path, _ := args[0].(string)
	full, err := f.checkPath(path)
	if err != nil {
		return nil, err
	}

	fh, err := os.Open(full)
	if err != nil {
		return nil, err
	}

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	return rpc.NewStream(func(ctx context.Context) (any, error) {
		for {
			n, err := fh.Read(buf)
			if n > 0 {
				out := make([]byte, n)
				copy(out, buf[:n])
				return out, nil
			}
			if err != nil {
				fh.Close() // includes io.EOF, which terminates the stream normally
				return nil, err
			}
		}
	}, func() { fh.Close() }), nil
}

func (f *File) listDir(ctx context.Context, args []any, in *rpc.Stream) (any, error) {
	path, _ := args[0].(string)
	full, err := f.checkPath(path)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

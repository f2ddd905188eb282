package main

// sources module provides ways to obtain model artifact
//
// Copyright (c) 2023 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Source represents single way to place model artifact at given path
type Source interface {
	Name() string
	Fetch(ctx context.Context, dst string) error
}

// NewSources returns configured sources ordered by preference
func NewSources(cfg ModelConfig) []Source {
	var out []Source
	if len(cfg.Parts) > 0 {
		out = append(out, &PartsSource{Parts: cfg.Parts, Archive: cfg.Archive})
	} else if cfg.Archive != "" {
		out = append(out, &ArchiveSource{Archive: cfg.Archive})
	}
	if cfg.URL != "" {
		out = append(out, NewURLSource(cfg.URL, time.Duration(cfg.Timeout)*time.Second))
	}
	return out
}

// URLSource downloads artifact from remote location
type URLSource struct {
	URL    string
	Client *http.Client
}

// NewURLSource creates URLSource with given client timeout
func NewURLSource(rurl string, timeout time.Duration) *URLSource {
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Timeout: timeout, Jar: jar}
	return &URLSource{URL: rurl, Client: client}
}

// Name implements Source interface
func (s *URLSource) Name() string { return "url" }

func (s *URLSource) get(ctx context.Context, rurl string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rurl, nil)
	if err != nil {
		return nil, err
	}
	rsp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return rsp, nil
}

// Fetch implements Source interface. Large files on Google Drive are
// served behind a virus scan warning page, in that case the download is
// confirmed with token from download_warning cookie.
func (s *URLSource) Fetch(ctx context.Context, dst string) error {
	if Config.Verbose > 0 {
		log.Printf("download model from %s to %s", s.URL, dst)
	}
	rsp, err := s.get(ctx, s.URL)
	if err != nil {
		return err
	}
	if token := confirmToken(rsp); token != "" {
		rsp.Body.Close()
		rurl, err := url.Parse(s.URL)
		if err != nil {
			return err
		}
		query := rurl.Query()
		query.Set("confirm", token)
		rurl.RawQuery = query.Encode()
		if Config.Verbose > 0 {
			log.Printf("confirm download with %s", rurl)
		}
		rsp, err = s.get(ctx, rurl.String())
		if err != nil {
			return err
		}
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s from %s", ErrDownloadStatus, rsp.Status, s.URL)
	}
	if err := writeFile(dst, rsp.Body); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// helper function to extract download confirmation token
func confirmToken(rsp *http.Response) string {
	for _, cookie := range rsp.Cookies() {
		if strings.HasPrefix(cookie.Name, "download_warning") {
			return cookie.Value
		}
	}
	return ""
}

// PartsSource combines ordered archive parts into single archive and
// extracts artifact from it
type PartsSource struct {
	Parts   []string
	Archive string
}

// Name implements Source interface
func (s *PartsSource) Name() string { return "parts" }

// archive returns path of combined archive, e.g. model.zip for model.zip.001
func (s *PartsSource) archive() string {
	if s.Archive != "" {
		return s.Archive
	}
	first := s.Parts[0]
	return strings.TrimSuffix(first, filepath.Ext(first))
}

// Fetch implements Source interface
func (s *PartsSource) Fetch(ctx context.Context, dst string) error {
	var readers []io.Reader
	for _, part := range s.Parts {
		file, err := os.Open(part)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrMissingPart, part)
			}
			return err
		}
		defer file.Close()
		readers = append(readers, file)
	}
	archive := s.archive()
	if Config.Verbose > 0 {
		log.Printf("combine %d parts into %s", len(s.Parts), archive)
	}
	if err := writeFile(archive, io.MultiReader(readers...)); err != nil {
		return err
	}
	return extract(archive, dst)
}

// ArchiveSource extracts artifact from previously combined archive
type ArchiveSource struct {
	Archive string
}

// Name implements Source interface
func (s *ArchiveSource) Name() string { return "archive" }

// Fetch implements Source interface
func (s *ArchiveSource) Fetch(ctx context.Context, dst string) error {
	if _, err := os.Stat(s.Archive); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingPart, s.Archive)
		}
		return err
	}
	return extract(s.Archive, dst)
}

// helper function to write content of reader into file, the file appears
// at dst only when it is completely written
func writeFile(dst string, r io.Reader) error {
	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := dst + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// helper function to extract artifact from zip, tar or tar.gz archive
func extract(archive, dst string) error {
	name := strings.ToLower(archive)
	switch {
	case strings.HasSuffix(name, ".zip"):
		return extractZip(archive, dst)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"), strings.HasSuffix(name, ".tar"):
		return extractTar(archive, dst)
	}
	return fmt.Errorf("unsupported archive format %s", archive)
}

// helper function to pick archive member which holds the artifact, either
// the one with artifact base name or the only file in the archive
func pickMember(names []string, dst string) (string, error) {
	base := filepath.Base(dst)
	for _, name := range names {
		if filepath.Base(name) == base {
			return name, nil
		}
	}
	if len(names) == 1 {
		return names[0], nil
	}
	return "", fmt.Errorf("%w: %s among %v", ErrNoMember, base, names)
}

func extractZip(archive, dst string) error {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer reader.Close()
	var names []string
	for _, f := range reader.File {
		if f.Mode().IsRegular() {
			names = append(names, f.Name)
		}
	}
	member, err := pickMember(names, dst)
	if err != nil {
		return err
	}
	for _, f := range reader.File {
		if f.Name != member {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		return writeFile(dst, rc)
	}
	return fmt.Errorf("%w: %s", ErrNoMember, member)
}

// helper function to walk over tar archive, fn returns true to stop the walk
func walkTar(archive string, fn func(hdr *tar.Header, r io.Reader) (bool, error)) error {
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()
	var reader io.Reader = file
	if !strings.HasSuffix(strings.ToLower(archive), ".tar") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	}
	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		stop, err := fn(hdr, tr)
		if err != nil || stop {
			return err
		}
	}
}

func extractTar(archive, dst string) error {
	var names []string
	err := walkTar(archive, func(hdr *tar.Header, r io.Reader) (bool, error) {
		names = append(names, hdr.Name)
		return false, nil
	})
	if err != nil {
		return err
	}
	member, err := pickMember(names, dst)
	if err != nil {
		return err
	}
	var found bool
	err = walkTar(archive, func(hdr *tar.Header, r io.Reader) (bool, error) {
		if hdr.Name != member {
			return false, nil
		}
		found = true
		return true, writeFile(dst, r)
	})
	if err == nil && !found {
		err = fmt.Errorf("%w: %s", ErrNoMember, member)
	}
	return err
}

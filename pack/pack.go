// Package pack assembles the submission bundle: a directory holding the
// agent executable and its entry document, archived as a tar and compressed.
//
// Packaging clears all previous output first and writes normalized archive
// headers, so repeated runs over the same inputs produce byte-identical
// archives.
package pack

import (
	"archive/tar"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/zeebo/blake3"

	"github.com/dmora/botly/config"
)

// ErrPackage is returned when any packaging step fails.
var ErrPackage = errors.New("pack: packaging failed")

// epoch is the modification time of every archive entry.
var epoch = time.Unix(0, 0).UTC()

// File is one entry of the bundle.
type File struct {
	Name string
	Size int64
	Mode fs.FileMode
}

// Bundle describes a finished package.
type Bundle struct {
	// Path is the compressed archive.
	Path string
	// Size is the compressed archive size in bytes.
	Size int64
	// Tar is the uncompressed archive, kept next to Path.
	Tar string
	// Compression is the codec used for Path.
	Compression Compression
	// Files are the bundle entries in archive order.
	Files []File
	// Digest is the hex blake3 digest of the compressed archive.
	Digest string
	// ExecutableDigest is the hex blake3 digest of the packaged executable.
	ExecutableDigest string
}

// Packager builds submission bundles.
type Packager struct {
	opts Options
}

// New creates a Packager.
func New(opts ...Option) *Packager {
	return &Packager{opts: resolveOptions(opts...)}
}

func (p *Packager) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.opts.Root, name)
}

// archives returns the tar path followed by every compressed variant.
func (p *Packager) archives() []string {
	tarPath := p.path(p.opts.Archive)
	paths := []string{tarPath}
	for _, c := range Compressions {
		paths = append(paths, tarPath+"."+c.Ext())
	}
	return paths
}

// checkOutside rejects an executable that Clean would remove before it is
// copied.
func (p *Packager) checkOutside(executable string) error {
	exe := canonical(executable)
	if within(canonical(p.path(p.opts.DistDir)), exe) {
		return fmt.Errorf("%w: executable %s is inside bundle directory %s", ErrPackage, executable, p.opts.DistDir)
	}
	for _, path := range p.archives() {
		if canonical(path) == exe {
			return fmt.Errorf("%w: executable %s is a bundle archive path", ErrPackage, executable)
		}
	}
	return nil
}

// canonical returns path as an absolute path with symlinks resolved as far
// as they exist.
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs))
	}
	return abs
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Clean removes the bundle directory, the tar and every compressed variant.
// Missing paths are not errors.
func (p *Packager) Clean() error {
	if err := os.RemoveAll(p.path(p.opts.DistDir)); err != nil {
		return fmt.Errorf("%w: clean: %w", ErrPackage, err)
	}
	for _, path := range p.archives() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: clean: %w", ErrPackage, err)
		}
	}
	return nil
}

// Package bundles executable and returns the compressed archive.
func (p *Packager) Package(ctx context.Context, executable string) (*Bundle, error) {
	if _, err := ParseCompression(string(p.opts.Compression)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackage, err)
	}
	if err := p.opts.Entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackage, err)
	}
	info, err := os.Stat(executable)
	if err != nil {
		return nil, fmt.Errorf("%w: executable: %w", ErrPackage, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: executable %s is not a regular file", ErrPackage, executable)
	}
	exeName := filepath.Base(executable)
	if e := p.opts.Entry; e.Variant == config.VariantProduction && filepath.Base(e.Executable) != exeName {
		return nil, fmt.Errorf("%w: entry executable %s does not match packaged %s", ErrPackage, e.Executable, exeName)
	}
	if exeName == p.opts.EntryName {
		return nil, fmt.Errorf("%w: executable and entry are both named %s", ErrPackage, exeName)
	}
	if err := p.checkOutside(executable); err != nil {
		return nil, err
	}

	if err := p.Clean(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackage, err)
	}

	dist := p.path(p.opts.DistDir)
	if err := os.MkdirAll(dist, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackage, err)
	}
	if err := copyExecutable(executable, filepath.Join(dist, exeName)); err != nil {
		return nil, fmt.Errorf("%w: copy executable: %w", ErrPackage, err)
	}
	entry, err := p.opts.Entry.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackage, err)
	}
	if err := os.WriteFile(filepath.Join(dist, p.opts.EntryName), entry, 0o644); err != nil {
		return nil, fmt.Errorf("%w: write entry: %w", ErrPackage, err)
	}

	files, err := p.list(dist)
	if err != nil {
		return nil, err
	}

	tarPath := p.path(p.opts.Archive)
	if err := writeTar(tarPath, dist, files); err != nil {
		return nil, fmt.Errorf("%w: tar: %w", ErrPackage, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackage, err)
	}

	archive := tarPath + "." + p.opts.Compression.Ext()
	if err := compressFile(tarPath, archive, p.opts.Compression); err != nil {
		return nil, fmt.Errorf("%w: compress: %w", ErrPackage, err)
	}

	bundle := &Bundle{
		Path:        archive,
		Tar:         tarPath,
		Compression: p.opts.Compression,
		Files:       files,
	}
	if bundle.Digest, err = hashFile(archive); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackage, err)
	}
	if bundle.ExecutableDigest, err = hashFile(filepath.Join(dist, exeName)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackage, err)
	}
	archiveInfo, err := os.Stat(archive)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackage, err)
	}
	bundle.Size = archiveInfo.Size()

	p.opts.Logger.Info("bundle written",
		"path", archive,
		"size", humanize.IBytes(uint64(bundle.Size)),
		"compression", string(bundle.Compression),
		"digest", bundle.Digest,
	)
	return bundle, nil
}

// list returns the bundle directory entries sorted by name and logs them
// with human-readable sizes.
func (p *Packager) list(dist string) ([]File, error) {
	entries, err := os.ReadDir(dist)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrPackage, err)
	}
	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("%w: list: %w", ErrPackage, err)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: unexpected entry %s in %s", ErrPackage, entry.Name(), dist)
		}
		f := File{Name: entry.Name(), Size: info.Size(), Mode: info.Mode().Perm()}
		p.opts.Logger.Info("bundle file", "name", f.Name, "mode", f.Mode.String(), "size", humanize.IBytes(uint64(f.Size)))
		files = append(files, f)
	}
	return files, nil
}

func copyExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// The umask may have narrowed the mode.
	return os.Chmod(dst, 0o755)
}

// writeTar archives files from dir at the tar root with normalized headers.
func writeTar(path, dir string, files []File) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(out)
	for _, f := range files {
		if err := addFile(tw, dir, f); err != nil {
			out.Close()
			return err
		}
	}
	if err := tw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func addFile(tw *tar.Writer, dir string, f File) error {
	mode := int64(0o644)
	if f.Mode&0o111 != 0 {
		mode = 0o755
	}
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     f.Name,
		Mode:     mode,
		Size:     f.Size,
		ModTime:  epoch,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	in, err := os.Open(filepath.Join(dir, f.Name))
	if err != nil {
		return err
	}
	defer in.Close()
	if _, err := io.CopyN(tw, in, f.Size); err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	return nil
}

func compressFile(src, dst string, c Compression) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	zw, err := c.NewWriter(out)
	if err != nil {
		out.Close()
		return err
	}
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		out.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

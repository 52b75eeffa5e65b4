package install

import (
	"archive/tar"
	"cellar/internal/utils"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// verifyGzip checks the artifact's magic bytes before it is treated as
// a bottle. A bad content type here usually means the server sent an
// error page instead of the archive.
func verifyGzip(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := f.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read artifact header: %w", err)
	}

	kind, _ := filetype.Match(head[:n])
	if kind.Extension != "gz" {
		return fmt.Errorf("bottle %s is not a gzip archive (detected %q)", filepath.Base(path), kind.Extension)
	}
	return nil
}

// extractTarGz unpacks a tar.gz archive into destDir, refusing entries
// that would land outside it.
func extractTarGz(archive, destDir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		dest, err := entryPath(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(dest, tr, hdr.Mode); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, dest); err != nil {
				return err
			}
		default:
			utils.Debug("Skipping tar entry %s with type %d", hdr.Name, hdr.Typeflag)
		}
	}
}

// entryPath joins an archive entry name onto destDir and rejects
// escapes like "../".
func entryPath(destDir, name string) (string, error) {
	dest := filepath.Join(destDir, name)
	if dest != destDir && !strings.HasPrefix(dest, destDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %s escapes the keg", name)
	}
	return dest, nil
}

func writeEntry(dest string, r io.Reader, mode int64) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(mode)&0o777)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

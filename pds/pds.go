// Package pds builds and rewrites packaged datasources: a ".quarryx" zip
// archive holding a JSON manifest next to the extract file it describes.
// Swapping the extract keeps the manifest untouched, so a published
// datasource keeps its metadata while its data is replaced.
package pds

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/quarrydata/quarry/driver"
)

// Extension is the file extension of a packaged datasource.
const Extension = ".quarryx"

// manifestFileName is the fixed name of the manifest entry in the archive.
const manifestFileName = "manifest.json"

// Predefined errors
var (
	// ErrNoManifest is returned when the archive has no manifest entry
	ErrNoManifest = errors.New("pds: archive has no manifest")

	// ErrNoExtract is returned when the archive misses the extract named in the manifest
	ErrNoExtract = errors.New("pds: archive has no extract entry")
)

// Manifest describes the packaged datasource.
type Manifest struct {
	// Name is the datasource display name.
	Name string `json:"name"`
	// Extract is the archive entry name of the extract file.
	Extract string `json:"extract"`
	// FormatVersion is the extract's format version at packaging time.
	FormatVersion int `json:"format_version"`
	// CreatedAt is the packaging timestamp in RFC 3339 form.
	CreatedAt string `json:"created_at"`
}

// Build packages an extract file into a new .quarryx archive at outputPath.
// The extract is validated before packaging.
func Build(outputPath, extractPath, name string) error {
	formatVersion, err := driver.ExtractFormatVersion(extractPath)
	if err != nil {
		return err
	}

	manifest := Manifest{
		Name:          name,
		Extract:       filepath.Base(extractPath),
		FormatVersion: formatVersion,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	return writeArchive(outputPath, manifest, extractPath)
}

// ReadManifest reads the manifest of a packaged datasource.
func ReadManifest(packagePath string) (*Manifest, error) {
	reader, err := zip.OpenReader(packagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open package: %w", err)
	}
	defer func() { _ = reader.Close() }()

	return readManifest(&reader.Reader)
}

// Unpack extracts manifest and extract file into outputDir and returns the
// path of the unpacked extract.
func Unpack(packagePath, outputDir string) (string, error) {
	reader, err := zip.OpenReader(packagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open package: %w", err)
	}
	defer func() { _ = reader.Close() }()

	manifest, err := readManifest(&reader.Reader)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, file := range reader.File {
		// Entry names are fixed at packaging time, but reject separators
		// anyway so a crafted archive cannot write outside outputDir.
		if filepath.Base(file.Name) != file.Name {
			continue
		}
		if err := extractEntry(file, filepath.Join(outputDir, file.Name)); err != nil {
			return "", err
		}
	}

	extractPath := filepath.Join(outputDir, manifest.Extract)
	if _, err := os.Stat(extractPath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoExtract, manifest.Extract)
	}
	return extractPath, nil
}

// SwapExtract replaces the extract inside a packaged datasource with a new
// one, preserving the manifest's name and entry name. The archive is
// rewritten atomically via a temporary file.
func SwapExtract(packagePath, newExtractPath string) error {
	formatVersion, err := driver.ExtractFormatVersion(newExtractPath)
	if err != nil {
		return err
	}

	manifest, err := ReadManifest(packagePath)
	if err != nil {
		return err
	}
	manifest.FormatVersion = formatVersion

	tempPath := packagePath + ".swap"
	if err := writeArchive(tempPath, *manifest, newExtractPath); err != nil {
		removeErr := os.Remove(tempPath)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			return errors.Join(err, removeErr)
		}
		return err
	}
	return os.Rename(tempPath, packagePath)
}

// writeArchive writes a manifest plus one extract file as a zip archive. The
// extract keeps the entry name recorded in the manifest.
func writeArchive(outputPath string, manifest Manifest, extractPath string) error {
	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create package file: %w", err)
	}

	zipWriter := zip.NewWriter(output)

	writeErr := func() error {
		manifestEntry, err := zipWriter.Create(manifestFileName)
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(manifestEntry)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(manifest); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}

		extractEntry, err := zipWriter.Create(manifest.Extract)
		if err != nil {
			return err
		}
		extractFile, err := os.Open(extractPath)
		if err != nil {
			return fmt.Errorf("failed to open extract file: %w", err)
		}
		defer func() { _ = extractFile.Close() }()
		if _, err := io.Copy(extractEntry, extractFile); err != nil {
			return fmt.Errorf("failed to write extract entry: %w", err)
		}
		return nil
	}()

	closeErr := errors.Join(zipWriter.Close(), output.Close())
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

// readManifest finds and decodes the manifest entry.
func readManifest(reader *zip.Reader) (*Manifest, error) {
	for _, file := range reader.File {
		if file.Name != manifestFileName {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open manifest: %w", err)
		}
		var manifest Manifest
		decodeErr := json.NewDecoder(rc).Decode(&manifest)
		closeErr := rc.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("failed to decode manifest: %w", decodeErr)
		}
		if closeErr != nil {
			return nil, closeErr
		}
		return &manifest, nil
	}
	return nil, ErrNoManifest
}

// extractEntry writes one archive entry to targetPath.
func extractEntry(file *zip.File, targetPath string) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", file.Name, err)
	}
	defer func() { _ = rc.Close() }()

	target, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", targetPath, err)
	}

	_, copyErr := io.Copy(target, rc)
	closeErr := target.Close()
	if copyErr != nil {
		return fmt.Errorf("failed to extract %s: %w", file.Name, copyErr)
	}
	return closeErr
}

package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DocumentID identifies one resource definition document.
type DocumentID string

// DocumentMetadata describes a discovered definition document.
type DocumentMetadata struct {
	ID       DocumentID
	Name     string
	FilePath string
}

// Discovery abstracts where resource definition documents come from,
// so the loader can be driven from the filesystem or from fixtures.
type Discovery interface {
	ListMetadata(ctx context.Context) ([]*DocumentMetadata, error)
	ReadDocument(ctx context.Context, id DocumentID) ([]byte, error)
}

// FileSystemDiscovery finds YAML definition documents under a root
// directory.
type FileSystemDiscovery struct {
	docPaths map[DocumentID]string
	docMetas map[DocumentID]*DocumentMetadata
}

// NewFileSystemDiscovery walks rootDir collecting *.yaml and *.yml
// definition documents.
func NewFileSystemDiscovery(ctx context.Context, rootDir string) (*FileSystemDiscovery, error) {
	discovery := &FileSystemDiscovery{
		docPaths: make(map[DocumentID]string),
		docMetas: make(map[DocumentID]*DocumentMetadata),
	}

	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		relPath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %q: %w", path, err)
		}

		name := strings.TrimSuffix(d.Name(), ext)
		id := DocumentID(relPath)
		discovery.docPaths[id] = path
		discovery.docMetas[id] = &DocumentMetadata{ID: id, Name: name, FilePath: relPath}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk root directory %q: %w", rootDir, err)
	}
	return discovery, nil
}

func (d *FileSystemDiscovery) ListMetadata(ctx context.Context) ([]*DocumentMetadata, error) {
	metas := make([]*DocumentMetadata, 0, len(d.docMetas))
	for _, meta := range d.docMetas {
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].ID < metas[j].ID })
	return metas, nil
}

func (d *FileSystemDiscovery) ReadDocument(ctx context.Context, id DocumentID) ([]byte, error) {
	fp, ok := d.docPaths[id]
	if !ok {
		return nil, fmt.Errorf("document %q not found", id)
	}
	content, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %q: %w", id, err)
	}
	return content, nil
}

// InMemoryDocument is a definition document held in memory.
type InMemoryDocument struct {
	Name    string
	Content string
}

// InMemoryDiscovery is a Discovery backed by in-memory documents,
// used by tests and embedded callers.
type InMemoryDiscovery struct {
	metas    []*DocumentMetadata
	contents map[DocumentID]string
}

func NewInMemoryDiscovery(docs []InMemoryDocument) *InMemoryDiscovery {
	discovery := &InMemoryDiscovery{contents: make(map[DocumentID]string)}
	for _, doc := range docs {
		id := DocumentID(doc.Name)
		discovery.metas = append(discovery.metas, &DocumentMetadata{
			ID:       id,
			Name:     doc.Name,
			FilePath: doc.Name + ".yaml",
		})
		discovery.contents[id] = doc.Content
	}
	return discovery
}

func (d *InMemoryDiscovery) ListMetadata(ctx context.Context) ([]*DocumentMetadata, error) {
	return d.metas, nil
}

func (d *InMemoryDiscovery) ReadDocument(ctx context.Context, id DocumentID) ([]byte, error) {
	content, exists := d.contents[id]
	if !exists {
		return nil, fmt.Errorf("document %q not found", id)
	}
	return []byte(content), nil
}

// LoadDir is a convenience function that discovers definition
// documents under rootDir and builds the catalog.
func LoadDir(rootDir string) (*Catalog, error) {
	discovery, err := NewFileSystemDiscovery(context.Background(), rootDir)
	if err != nil {
		return nil, err
	}
	return Load(context.Background(), discovery)
}

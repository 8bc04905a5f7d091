package dag

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// DagBuilder accumulates leaves (in link order) before a final root leaf
// is built over them. Use CreateDag/CreateDagWithConfig for the common
// filesystem-walking path, or use DagBuilder directly to assemble a DAG
// leaf-by-leaf (e.g. from a non-filesystem source).
type DagBuilder struct {
	leaves map[string]*DagLeaf
	order  []string
	cfg    *BuilderConfig
}

// NewDagBuilder returns an empty builder using cfg (nil means defaults).
func NewDagBuilder(cfg *BuilderConfig) *DagBuilder {
	return &DagBuilder{leaves: make(map[string]*DagLeaf), cfg: cfg}
}

// AddLeaf registers a fully-built, non-root leaf (its Hash must already be
// set) under its own hash as the map key.
func (b *DagBuilder) AddLeaf(leaf *DagLeaf) error {
	if leaf.Hash == "" {
		return newErr(ErrKindInvalidLeaf, "leaf has no hash; call computeHash before AddLeaf")
	}
	b.leaves[leaf.Hash] = leaf
	b.order = append(b.order, leaf.Hash)
	return nil
}

// BuildDag finalizes root as the DAG's root leaf: it wires root.Links from
// links, computes the two-pass DagSize/root hash, and returns the
// assembled Dag containing every leaf added so far plus root.
func (b *DagBuilder) BuildDag(root *DagLeaf, links []DagLink) (*Dag, error) {
	root.Links = links
	root.CurrentLinkCount = len(links)

	merkleRoot, _, err := merkleRootFor(links)
	if err != nil {
		return nil, err
	}
	root.ClassicMerkleRoot = merkleRoot

	var childrenDagSize int64
	leafCount := 0
	for _, hash := range b.order {
		leaf := b.leaves[hash]
		enc, err := persistedImageBytes(leaf)
		if err != nil {
			return nil, err
		}
		childrenDagSize += int64(len(enc))
		leafCount++
	}
	root.LeafCount = leafCount + 1

	if err := computeRootHash(root, childrenDagSize); err != nil {
		return nil, err
	}

	leafs := make(map[string]*DagLeaf, len(b.leaves)+1)
	for k, v := range b.leaves {
		leafs[k] = v
	}
	leafs[root.Hash] = root

	return &Dag{Root: root.Hash, Leafs: leafs}, nil
}

// CreateDag walks path (a file or directory) and builds a complete DAG
// from it using DefaultChunkSize.
func CreateDag(path string) (*Dag, error) {
	return CreateDagWithConfig(path, nil)
}

// CreateDagWithConfig is CreateDag with an explicit BuilderConfig.
func CreateDagWithConfig(path string, cfg *BuilderConfig) (*Dag, error) {
	b := NewDagBuilder(cfg)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, newPathNotFound(path)
	}
	if err != nil {
		return nil, wrapErr(ErrKindIO, fmt.Sprintf("stat %q", path), err)
	}

	itemName := filepath.Base(path)

	var root *DagLeaf
	var links []DagLink

	if info.IsDir() {
		root = &DagLeaf{ItemName: itemName, Type: DirectoryLeafType, AdditionalData: cfg.additionalData()}
		links, err = b.processDirectory(path, path)
		if err != nil {
			return nil, err
		}
	} else {
		fileLeaf, err := b.processFile(path, itemName)
		if err != nil {
			return nil, err
		}
		root = fileLeaf
		root.AdditionalData = cfg.additionalData()
		links = fileLeaf.Links
	}

	if cfg != nil && cfg.TimestampRoot != "" {
		root.AdditionalData = append(root.AdditionalData, AdditionalDataItem{"timestamp", cfg.TimestampRoot})
	}

	return b.BuildDag(root, links)
}

// processDirectory recursively builds leaves for every entry of dir,
// sorted by filename for deterministic traversal. Each entry's ItemName
// is its path relative to rootBase (so nested leaves get globally-unique
// names), while its Links label stays the entry's own local filename, so
// Materialize can join labels onto a destination path one directory
// level at a time. The returned links are sorted by identifier (hash),
// per the Directory ordering rule.
func (b *DagBuilder) processDirectory(dir, rootBase string) ([]DagLink, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, wrapErr(ErrKindIO, fmt.Sprintf("read dir %q", dir), err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	links := make([]DagLink, 0, len(entries))
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		rel, err := filepath.Rel(rootBase, full)
		if err != nil {
			return nil, wrapErr(ErrKindIO, fmt.Sprintf("relativize %q", full), err)
		}

		if entry.IsDir() {
			childLinks, err := b.processDirectory(full, rootBase)
			if err != nil {
				return nil, err
			}
			leaf := &DagLeaf{ItemName: rel, Type: DirectoryLeafType, Links: childLinks}
			merkleRoot, _, err := merkleRootFor(childLinks)
			if err != nil {
				return nil, err
			}
			leaf.ClassicMerkleRoot = merkleRoot
			leaf.CurrentLinkCount = len(childLinks)
			if err := computeHash(leaf); err != nil {
				return nil, err
			}
			if err := b.AddLeaf(leaf); err != nil {
				return nil, err
			}
			links = append(links, DagLink{Label: entry.Name(), Hash: leaf.Hash})
		} else {
			fileLeaf, err := b.processFile(full, rel)
			if err != nil {
				return nil, err
			}
			if err := b.AddLeaf(fileLeaf); err != nil {
				return nil, err
			}
			links = append(links, DagLink{Label: entry.Name(), Hash: fileLeaf.Hash})
		}
	}

	sort.Slice(links, func(i, j int) bool { return links[i].Hash < links[j].Hash })
	return links, nil
}

// processFile builds the leaf for the file at path, named itemName (its
// path relative to the DAG root, or the root's own basename if the DAG
// is a single file). If the file's content fits within the configured
// chunk size (or chunking is disabled), it returns a single File leaf
// carrying that content directly, with no links. Otherwise it chunks the
// file into chunkSize-sized Chunk leaves, named
// "<itemName>/<chunk_index>", and returns a File leaf whose links are
// those chunks in sequence order.
func (b *DagBuilder) processFile(path, itemName string) (*DagLeaf, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, wrapErr(ErrKindIO, fmt.Sprintf("stat %q", path), err)
	}

	chunkSize := b.cfg.chunkSize()
	chunked := !b.cfg.chunkingDisabled() && info.Size() > int64(chunkSize)

	if !chunked {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, wrapErr(ErrKindIO, fmt.Sprintf("read %q", path), err)
		}
		sum := sha256.Sum256(content)
		leaf := &DagLeaf{
			ItemName:    itemName,
			Type:        FileLeafType,
			Content:     content,
			ContentHash: sum[:],
			ContentSize: int64(len(content)),
		}
		if err := computeHash(leaf); err != nil {
			return nil, err
		}
		return leaf, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(ErrKindIO, fmt.Sprintf("open %q", path), err)
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	var links []DagLink
	i := 0
	for {
		n, readErr := io.ReadFull(f, buf)
		if n > 0 {
			chunkData := make([]byte, n)
			copy(chunkData, buf[:n])
			sum := sha256.Sum256(chunkData)

			leaf := &DagLeaf{
				ItemName:    fmt.Sprintf("%s/%d", itemName, i),
				Type:        ChunkLeafType,
				Content:     chunkData,
				ContentHash: sum[:],
				ContentSize: int64(n),
			}
			if err := computeHash(leaf); err != nil {
				return nil, err
			}
			if err := b.AddLeaf(leaf); err != nil {
				return nil, err
			}
			links = append(links, DagLink{Label: fmt.Sprintf("%d", i), Hash: leaf.Hash})
			i++
		}

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return nil, wrapErr(ErrKindIO, fmt.Sprintf("read %q", path), readErr)
		}
	}

	fileLeaf := &DagLeaf{ItemName: itemName, Type: FileLeafType, Links: links}
	merkleRoot, _, err := merkleRootFor(links)
	if err != nil {
		return nil, err
	}
	fileLeaf.ClassicMerkleRoot = merkleRoot
	fileLeaf.CurrentLinkCount = len(links)
	fileLeaf.ContentSize = info.Size()
	if err := computeHash(fileLeaf); err != nil {
		return nil, err
	}
	return fileLeaf, nil
}

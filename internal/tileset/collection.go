package tileset

import (
	"os"
	"path/filepath"

	"github.com/ecopia-map/cdb2tiles/internal/cdberr"
	"github.com/ecopia-map/cdb2tiles/internal/cdbtile"
)

// Collection is the per-geocell TilesetCollection (§3): a CS-hash to
// Tileset mapping plus the parallel CS-hash to output-directory mapping,
// created lazily on first insertion and discarded at geocell flush.
type Collection struct {
	datasetDir string // <geocellDir>/<datasetDir>, the collectionRoot of §4.4 step 1
	tilesets   map[string]*Tileset
	dirs       map[string]string
}

// NewCollection opens a collection rooted at datasetDir (the geocell's
// per-dataset output directory).
func NewCollection(datasetDir string) *Collection {
	return &Collection{
		datasetDir: datasetDir,
		tilesets:   make(map[string]*Tileset),
		dirs:       make(map[string]string),
	}
}

// ResolveDir returns (creating lazily if needed) the output directory for
// tile's CS bucket: "<datasetDir>/<CS1>_<CS2>" (§4.4 step 1).
func (c *Collection) ResolveDir(tile cdbtile.CDBTile) (string, error) {
	csKey := tile.CSKey()
	if dir, ok := c.dirs[csKey]; ok {
		return dir, nil
	}
	dir := filepath.Join(c.datasetDir, csKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", cdberr.Wrap(cdberr.IOError, "create CS output directory", err)
	}
	c.dirs[csKey] = dir
	return dir, nil
}

// TilesetFor returns (creating lazily if needed) the Tileset for tile's CS
// bucket.
func (c *Collection) TilesetFor(tile cdbtile.CDBTile) *Tileset {
	csKey := tile.CSKey()
	ts, ok := c.tilesets[csKey]
	if !ok {
		ts = NewTileset()
		c.tilesets[csKey] = ts
	}
	return ts
}

// CSKeys returns every CS bucket with a tileset, for the flush loop (§4.4
// "Flush per geocell: for each CS-tileset").
func (c *Collection) CSKeys() []string {
	keys := make([]string, 0, len(c.tilesets))
	for k := range c.tilesets {
		keys = append(keys, k)
	}
	return keys
}

func (c *Collection) Tileset(csKey string) *Tileset { return c.tilesets[csKey] }
func (c *Collection) Dir(csKey string) string       { return c.dirs[csKey] }

package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/mbglrender"
	"github.com/ownmap/tileserver/resolver"
	"github.com/ownmap/tileserver/styles"
	"github.com/ownmap/tileserver/styles/glstyle"
)

// sourcesSidecar is the on-disk shape of "<style>.sources.json": a flat
// map from a style's archiveA://<name> / archiveB://<name> source name
// to where that name resolves on this deployment. The style document
// format itself is out of scope (spec.md §1); this sidecar is this CLI's
// own choice for supplying styles.DataResolver from a config directory,
// not part of the style document grammar.
type sourcesSidecar map[string]styles.ResolvedSource

// loadStyleFile parses one style.json plus its sidecar resolver mapping.
func loadStyleFile(styleJSONPath string) (*glstyle.Document, styles.MapDataResolver, errorsx.Error) {
	data, err := os.ReadFile(styleJSONPath)
	if err != nil {
		return nil, nil, errorsx.Wrap(err, "path", styleJSONPath)
	}

	doc, parseErr := glstyle.Parse(data)
	if parseErr != nil {
		return nil, nil, errorsx.Wrap(parseErr, "path", styleJSONPath)
	}

	sidecarPath := strings.TrimSuffix(styleJSONPath, filepath.Ext(styleJSONPath)) + ".sources.json"
	sidecarData, err := os.ReadFile(sidecarPath)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, styles.MapDataResolver{}, nil
		}
		return nil, nil, errorsx.Wrap(err, "path", sidecarPath)
	}

	var sidecar sourcesSidecar
	if err := json.Unmarshal(sidecarData, &sidecar); err != nil {
		return nil, nil, errorsx.Wrap(err, "path", sidecarPath)
	}

	resolverMap := make(styles.MapDataResolver, len(sidecar))
	for name, entry := range sidecar {
		resolverMap[name] = entry
	}

	return doc, resolverMap, nil
}

// registerStylesFromDir registers every "*.json" style document directly
// under dir (sidecars excluded by the ".sources.json" name pattern) into
// registry, stopping at the first registration failure so a misconfigured
// deployment is caught at startup rather than serving a partial set
// (spec.md §7 FatalConfig).
func registerStylesFromDir(ctx context.Context, dir string, registry *styles.Registry, res *resolver.Resolver, publicURL string, maxScaleFactor int, tileFactory, staticFactory mbglrender.Factory) errorsx.Error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errorsx.Wrap(err, "dir", dir)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".sources.json") {
			continue
		}

		styleID := strings.TrimSuffix(name, ".json")
		doc, dataResolver, loadErr := loadStyleFile(filepath.Join(dir, name))
		if loadErr != nil {
			return errorsx.Wrap(loadErr, "style", styleID)
		}

		_, regErr := registry.Register(ctx, styles.RegisterParams{
			ID:                    styleID,
			Document:              doc,
			PublicURL:             publicURL,
			MaxScaleFactor:        maxScaleFactor,
			StyleJSONFolder:       dir,
			DataResolver:          dataResolver,
			ArchiveOpener:         defaultArchiveOpener{},
			BuildFetch:            res.Bind,
			TileRendererFactory:   tileFactory,
			StaticRendererFactory: staticFactory,
		})
		if regErr != nil {
			return errorsx.Wrap(regErr, "style", styleID)
		}
	}

	return nil
}

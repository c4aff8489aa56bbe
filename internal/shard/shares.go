package shard

import (
	"context"
	"fmt"
	"sort"

	"shard-go/internal/poly"
)

// SealedShareExt is appended to exported share files.
const SealedShareExt = FragmentsExt + ".age"

// Inspection summarizes a fragment set without reconstructing anything.
type Inspection struct {
	ShareSet    string
	Shares      int
	Abscissas   []string
	BlobPresent bool
}

// Inspect reports how many shares a fragment set holds and at which
// abscissas, and whether the matching blob is stored.
func (s *ShardService) Inspect(ctx context.Context, fragmentsName string) (*Inspection, error) {
	name, err := ValidateFragmentsName(fragmentsName)
	if err != nil {
		return nil, err
	}

	points, err := s.loadFragments(ctx, name)
	if err != nil {
		return nil, err
	}
	defer wipePoints(points)

	blob, err := s.vault.Exists(ctx, KindBlob, name)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", KindBlob.FileName(name), err)
	}

	xs := make([]string, len(points))
	for i, p := range points {
		xs[i] = p.X.String()
	}
	return &Inspection{
		ShareSet:    name,
		Shares:      len(points),
		Abscissas:   xs,
		BlobPresent: blob,
	}, nil
}

// ExportShares seals every share of a fragment set into its own file
// "<name>-<x>.frg.age" under outDir and returns the paths written. On failure
// the files already written are removed.
func (s *ShardService) ExportShares(ctx context.Context, fragmentsName string, sealer ShareSealer, outDir string) ([]string, error) {
	name, err := ValidateFragmentsName(fragmentsName)
	if err != nil {
		return nil, err
	}
	if sealer == nil {
		return nil, fmt.Errorf("%w: no sealer configured", ErrValidation)
	}

	points, err := s.loadFragments(ctx, name)
	if err != nil {
		return nil, err
	}
	defer wipePoints(points)

	var written []string
	cleanup := func() {
		for _, p := range written {
			s.removePartial(p)
		}
	}

	for _, p := range points {
		file := fmt.Sprintf("%s-%s%s", name, p.X, SealedShareExt)
		w, path, err := s.fsmgr.CreateExclusive(outDir, file)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("creating %s: %w", file, err)
		}
		written = append(written, path)

		if err := sealer.Seal(p, w); err != nil {
			w.Close()
			cleanup()
			return nil, cryptoErr("sealing share "+p.X.String(), err)
		}
		if err := w.Close(); err != nil {
			cleanup()
			return nil, fmt.Errorf("closing %s: %w", path, err)
		}
	}

	s.logger.Info("shares exported", "share_set", name, "count", len(written))
	return written, nil
}

// CollectResult describes a fragment set assembled from sealed shares.
type CollectResult struct {
	FragmentsName string
	Shares        int
}

// CollectShares opens sealed share files and stores them as the fragment set
// name. A directory among files stands for every "*.frg.age" file in it.
// Shares are ordered by abscissa. Two files holding the same abscissa are
// rejected.
func (s *ShardService) CollectShares(ctx context.Context, name string, files []string, opener ShareOpener) (*CollectResult, error) {
	if err := ValidateShareSetName(name); err != nil {
		return nil, err
	}
	if opener == nil {
		return nil, fmt.Errorf("%w: no opener configured", ErrValidation)
	}
	if err := s.ensureAbsent(ctx, name, KindFragments); err != nil {
		return nil, err
	}

	paths, err := s.resolveShareFiles(files)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no share files given", ErrValidation)
	}

	points := make([]poly.Point, 0, len(paths))
	defer func() { wipePoints(points) }()

	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		p, err := s.openShare(path, opener)
		if err != nil {
			return nil, err
		}
		x := p.X.String()
		if prev, ok := seen[x]; ok {
			poly.WipeInt(p.Y)
			return nil, fmt.Errorf("%w: %s and %s both hold share %s", ErrValidation, prev, path, x)
		}
		seen[x] = path.String()
		points = append(points, p)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].X.Cmp(points[j].X) < 0 })

	if err := s.storeFragments(ctx, name, points); err != nil {
		return nil, err
	}

	s.logger.Info("shares collected", "share_set", name, "count", len(points))
	return &CollectResult{FragmentsName: KindFragments.FileName(name), Shares: len(points)}, nil
}

func (s *ShardService) resolveShareFiles(files []string) ([]*Path, error) {
	var paths []*Path
	for _, raw := range files {
		path, err := s.fsmgr.Resolve(raw)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", raw, err)
		}
		if !path.IsDir() {
			paths = append(paths, path)
			continue
		}
		found, err := s.fsmgr.FindFiles(path, SealedShareExt)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", path, err)
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

func (s *ShardService) openShare(path *Path, opener ShareOpener) (poly.Point, error) {
	f, err := s.fsmgr.Open(path)
	if err != nil {
		return poly.Point{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	p, err := opener.Open(f)
	if err != nil {
		return poly.Point{}, cryptoErr("opening share "+path.Base(), err)
	}
	return p, nil
}

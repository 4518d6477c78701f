package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/annel0/voxelcore/internal/cuboid"
	"github.com/annel0/voxelcore/internal/generator"
	"github.com/annel0/voxelcore/internal/material"
	"github.com/annel0/voxelcore/internal/material/defaults"
	"github.com/annel0/voxelcore/internal/storage"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/dustin/go-humanize"
)

type command struct {
	usage   string
	help    string
	minArgs int
	maxArgs int
	run     func(ctx context.Context, s *session, args []string, w io.Writer) error
}

var commandOrder = []string{"list", "lookup", "register", "defaults", "mask", "digest", "generate", "stat"}

var commands = map[string]command{
	"list":     {usage: "", help: "print the persisted name table in id order", run: cmdList},
	"lookup":   {usage: "NAME", help: "print the id bound to a material name", minArgs: 1, maxArgs: 1, run: cmdLookup},
	"register": {usage: "NAME [ID]", help: "bind a root material name, optionally to a fixed id", minArgs: 1, maxArgs: 2, run: cmdRegister},
	"defaults": {usage: "", help: "register the built-in material set", run: cmdDefaults},
	"mask":     {usage: "", help: "print the minimum data mask of every built-in root", run: cmdMask},
	"digest":   {usage: "", help: "print the table digest after registering built-ins", run: cmdDigest},
	"generate": {usage: "NAME", help: "generate a terrain buffer and store it under NAME", minArgs: 1, maxArgs: 1, run: cmdGenerate},
	"stat":     {usage: "", help: "print table size and registry metrics", run: cmdStat},
}

func cmdList(ctx context.Context, s *session, _ []string, w io.Writer) error {
	names, err := s.store.Names(ctx)
	if err != nil {
		return err
	}

	type entry struct {
		id   uint16
		name string
	}
	entries := make([]entry, 0, len(names))
	for name, id := range names {
		entries = append(entries, entry{id: id, name: name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	for _, e := range entries {
		fmt.Fprintf(w, "%5d  %s\n", e.id, e.name)
	}
	return nil
}

func cmdLookup(ctx context.Context, s *session, args []string, w io.Writer) error {
	name := material.CanonicalName(args[0])
	id, ok, err := s.store.Lookup(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("material %q is not bound", name)
	}
	fmt.Fprintf(w, "%s %d\n", name, id)
	return nil
}

func cmdRegister(ctx context.Context, s *session, args []string, w io.Writer) error {
	m := material.NewMaterial(args[0])

	if len(args) == 2 {
		id, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			return fmt.Errorf("bad id %q: %w", args[1], err)
		}
		if err := s.registry.RegisterWithID(ctx, m, uint16(id)); err != nil {
			return err
		}
	} else if _, err := s.registry.Register(ctx, m); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %d\n", material.CanonicalName(m.Name()), m.ID())
	return nil
}

func cmdDefaults(ctx context.Context, s *session, _ []string, w io.Writer) error {
	set, err := defaults.RegisterDefaults(ctx, s.registry)
	if err != nil {
		return err
	}
	for _, m := range set.Roots() {
		fmt.Fprintf(w, "%5d  %-12s %d sub-materials\n", m.ID(), m.Name(), len(m.SubMaterials()))
	}
	fmt.Fprintf(w, "%d roots, digest %s\n", s.registry.Count(), s.registry.Digest())
	return nil
}

func cmdMask(ctx context.Context, s *session, _ []string, w io.Writer) error {
	if _, err := defaults.RegisterDefaults(ctx, s.registry); err != nil {
		return err
	}
	for _, m := range s.registry.Values() {
		mask, err := s.registry.MinimumDataMask(m)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-12s %#06x\n", m.Name(), mask)
	}
	return nil
}

func cmdDigest(ctx context.Context, s *session, _ []string, w io.Writer) error {
	if _, err := defaults.RegisterDefaults(ctx, s.registry); err != nil {
		return err
	}
	fmt.Fprintln(w, s.registry.Digest())
	return nil
}

func cmdGenerate(ctx context.Context, s *session, args []string, w io.Writer) error {
	set, err := defaults.RegisterDefaults(ctx, s.registry)
	if err != nil {
		return err
	}

	region, err := cuboid.NewRegion(vec.Vec3{}, vec.Vec3{X: s.opts.size, Y: s.opts.height, Z: s.opts.size})
	if err != nil {
		return err
	}
	buf := cuboid.NewMaterialBuffer(region)
	gen := generator.NewGenerator(s.opts.seed)
	err = gen.Fill(buf, generator.Palette{
		Air:   set.Air,
		Stone: set.Stone,
		Dirt:  set.Dirt,
		Grass: set.Grass,
		Sand:  set.Sand,
		Water: set.Water,
	})
	if err != nil {
		return err
	}

	encoded, err := cuboid.Encode(buf)
	if err != nil {
		return err
	}

	if s.opts.out != "" {
		if err := os.WriteFile(s.opts.out, encoded, 0o644); err != nil {
			return err
		}
	} else {
		buffers, err := s.openBufferStore()
		if err != nil {
			return err
		}
		defer buffers.Close()
		if err := buffers.SaveBuffer(ctx, args[0], buf); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "%s: %s blocks in %s, %s encoded\n",
		args[0], humanize.Comma(int64(region.Volume())), region, humanize.Bytes(uint64(len(encoded))))
	return nil
}

// openBufferStore делит базу с BadgerNameStore, иначе открывает worlds/buffers.db
func (s *session) openBufferStore() (*storage.BufferStore, error) {
	if b, ok := s.store.(*storage.BadgerNameStore); ok && b.DB() != nil {
		return storage.NewBufferStore(b.DB()), nil
	}
	path, err := storage.BuffersDB(s.root)
	if err != nil {
		return nil, err
	}
	return storage.OpenBufferStore(path)
}

func cmdStat(ctx context.Context, s *session, _ []string, w io.Writer) error {
	names, err := s.store.Names(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "backend:  %s\n", s.cfg.Registry.GetBackend())
	fmt.Fprintf(w, "names:    %s\n", humanize.Comma(int64(len(names))))

	if f, ok := s.store.(*storage.FileNameStore); ok {
		if info, err := os.Stat(f.Path()); err == nil {
			fmt.Fprintf(w, "file:     %s (%s, modified %s)\n", f.Path(), humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
		}
	}

	if s.gatherer == nil {
		return nil
	}
	families, err := s.gatherer.Gather()
	if err != nil {
		return err
	}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			value := m.GetCounter().GetValue() + m.GetGauge().GetValue()
			labels := ""
			for _, l := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", l.GetName(), l.GetValue())
			}
			fmt.Fprintf(w, "%s%s %g\n", family.GetName(), labels, value)
		}
	}
	return nil
}

// Command vfatctl mounts a FAT32 image file and inspects it read-only: list
// directories, print file contents, and show entry metadata. It exists to
// exercise the vfat32 package end to end against a real disk image rather
// than a synthetic one.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rpifs/vfat32"
)

// verbose is set by the root command's -v/--verbose persistent flag and
// read by mountImage to decide whether Mount gets a real logger or none.
var verbose bool

func main() {
	root := &cobra.Command{
		Use:   "vfatctl",
		Short: "Inspect a FAT32 disk image read-only",
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "trace cache misses to stderr")
	root.AddCommand(newLsCommand(), newCatCommand(), newStatCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mountImage(imagePath string) (vfat32.Handle, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return vfat32.Handle{}, err
	}

	var opts []vfat32.MountOption
	if verbose {
		opts = append(opts, vfat32.WithLogger(vfat32.NewLogger(os.Stderr, vfat32.LevelDebug)))
	}

	device := vfat32.NewFileDevice(f, mbrSectorSize)
	return vfat32.Mount(device, opts...)
}

const mbrSectorSize = 512

func newLsCommand() *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "ls <image> [path]",
		Short: "List a directory's entries",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 2 {
				path = args[1]
			}

			handle, err := mountImage(args[0])
			if err != nil {
				return err
			}

			entry, err := vfat32.Open(handle, path)
			if err != nil {
				return err
			}

			dir, ok := entry.AsDir()
			if !ok {
				return fmt.Errorf("%s: not a directory", path)
			}

			entries, err := dir.Entries()
			if err != nil {
				return err
			}

			for _, e := range entries {
				if !showAll && e.Metadata().Hidden() {
					continue
				}

				size := "-"
				if file, ok := e.AsFile(); ok {
					size = humanize.Bytes(uint64(file.Size()))
				}

				kind := "f"
				if _, ok := e.AsDir(); ok {
					kind = "d"
				}

				fmt.Printf("%s\t%8s\t%s\n", kind, size, e.Name())
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "include hidden entries")
	return cmd
}

func newCatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <image> <path>",
		Short: "Print a file's contents to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := mountImage(args[0])
			if err != nil {
				return err
			}

			entry, err := vfat32.Open(handle, args[1])
			if err != nil {
				return err
			}

			file, ok := entry.AsFile()
			if !ok {
				return fmt.Errorf("%s: not a file", args[1])
			}

			_, err = io.Copy(os.Stdout, &file)
			return err
		},
	}
}

func newStatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <image> <path>",
		Short: "Show one entry's metadata",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := mountImage(args[0])
			if err != nil {
				return err
			}

			entry, err := vfat32.Open(handle, args[1])
			if err != nil {
				return err
			}

			meta := entry.Metadata()
			fmt.Printf("name:      %s\n", entry.Name())
			if file, ok := entry.AsFile(); ok {
				fmt.Printf("size:      %s\n", humanize.Bytes(uint64(file.Size())))
			}
			fmt.Printf("read-only: %v\n", meta.ReadOnly())
			fmt.Printf("hidden:    %v\n", meta.Hidden())
			m := meta.Modified()
			fmt.Printf("modified:  %04d-%02d-%02d %02d:%02d:%02d\n",
				m.Year(), m.Month(), m.Day(), m.Hour(), m.Minute(), m.Second())
			return nil
		},
	}
}

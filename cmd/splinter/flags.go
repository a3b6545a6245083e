package main

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/splinter/internal/config"
)

// sizeFlag is a pflag.Value accepting human sizes such as 100MB or 1G.
type sizeFlag struct {
	v *datasize.ByteSize
}

var _ pflag.Value = sizeFlag{}

func (f sizeFlag) String() string {
	if f.v == nil || *f.v == 0 {
		return ""
	}
	return f.v.HR()
}

func (f sizeFlag) Set(val string) error {
	var b datasize.ByteSize
	if err := b.UnmarshalText([]byte(val)); err != nil {
		return fmt.Errorf("invalid size %q: %w", val, err)
	}
	*f.v = b
	return nil
}

func (sizeFlag) Type() string { return "size" }

// transferFlags are the flags shared by split and merge.
type transferFlags struct {
	outDir    string
	blockSize datasize.ByteSize
	bwLimit   datasize.ByteSize
}

func (t *transferFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&t.outDir, "output", "o", "", "directory for the output (default: next to the input)")
	fs.Var(sizeFlag{&t.blockSize}, "block-size", "I/O block size, e.g. 64KB (default 64KB)")
	fs.Var(sizeFlag{&t.bwLimit}, "bwlimit", "bandwidth limit, e.g. 100MB")
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func (t *transferFlags) applyConfigDefaults(cmd *cobra.Command, defaults config.DefaultsConfig) {
	if !cmd.Flags().Changed("block-size") && defaults.BlockSize != nil {
		t.blockSize = *defaults.BlockSize
	}
	if !cmd.Flags().Changed("bwlimit") && defaults.BWLimit != nil {
		t.bwLimit = *defaults.BWLimit
	}
}

// blockSizeInt converts the block size for the engine, rejecting values
// that do not fit an int slot.
func (t *transferFlags) blockSizeInt() (int, error) {
	const maxBlock = 1 << 30
	if t.blockSize.Bytes() > maxBlock {
		return 0, fmt.Errorf("--block-size %s exceeds %s", t.blockSize.HR(), datasize.ByteSize(maxBlock).HR())
	}
	return int(t.blockSize.Bytes()), nil //nolint:gosec // G115: bounded above
}

package command

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/flashboard/cmd/flashctl/console"
	"github.com/mklimuk/flashboard/memory/w25q128"
)

func Commands() cli.Commands {
	return cli.Commands{
		IDCmd,
		StatusCmd,
		ReadCmd,
		WriteCmd,
		EraseCmd,
		TestCmd,
		PowerCmd,
		ResetCmd,
	}
}

func addressFlag(required bool) cli.Flag {
	return &cli.IntFlag{Name: "address", Aliases: []string{"a"}, Usage: "flash address (decimal or 0x hex)", Required: required}
}

func address(c *cli.Context) (uint32, error) {
	addr := c.Int("address")
	if addr < 0 || addr > 0xFFFFFF {
		return 0, console.Exit(console.ExitUsage, "address out of range: %#x", addr)
	}
	return uint32(addr), nil
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(console.Output())
	defer enc.Close()
	return enc.Encode(v)
}

type idReport struct {
	JEDECID      w25q128.JEDECID `yaml:"jedec_id"`
	Manufacturer string          `yaml:"manufacturer"`
	DeviceID     string          `yaml:"device_id"`
	Name         string          `yaml:"name,omitempty"`
	Capacity     uint64          `yaml:"capacity"`
}

var IDCmd = &cli.Command{
	Name:  "id",
	Usage: "read manufacturer, device and JEDEC IDs",
	Action: func(c *cli.Context) error {
		f, release, err := openFlash(c, true)
		if err != nil {
			return err
		}
		defer release()
		id, err := f.ReadJEDECID(c.Context)
		if err != nil {
			return err
		}
		mfr, err := f.ReadID(c.Context)
		if err != nil {
			return err
		}
		report := idReport{
			JEDECID:      id,
			Manufacturer: fmt.Sprintf("0x%02X", mfr>>8),
			DeviceID:     fmt.Sprintf("0x%02X", mfr&0xFF),
			Capacity:     id.Capacity(),
		}
		if chip, ok := f.Chip(); ok {
			report.Name = chip.Name
		}
		return printYAML(report)
	},
}

var StatusCmd = &cli.Command{
	Name:  "status",
	Usage: "read status registers",
	Action: func(c *cli.Context) error {
		f, release, err := openFlash(c, true)
		if err != nil {
			return err
		}
		defer release()
		sr1, err := f.ReadStatus(c.Context)
		if err != nil {
			return err
		}
		sr2, err := f.ReadStatus2(c.Context)
		if err != nil {
			return err
		}
		return printYAML(map[string]string{
			"status1": sr1.String(),
			"status2": sr2.String(),
			"state":   sr1.State().String(),
		})
	},
}

var ReadCmd = &cli.Command{
	Name:  "read",
	Usage: "read a range and print it as hex dump or store it in a file",
	Flags: []cli.Flag{
		addressFlag(true),
		&cli.IntFlag{Name: "length", Aliases: []string{"n"}, Usage: "number of bytes to read", Value: 256},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write raw bytes to this file instead of dumping"},
		&cli.BoolFlag{Name: "fast", Usage: "use the fast read instruction"},
	},
	Action: func(c *cli.Context) error {
		addr, err := address(c)
		if err != nil {
			return err
		}
		length := c.Int("length")
		if length <= 0 {
			return console.Exit(console.ExitUsage, "length must be positive: %d", length)
		}
		f, release, err := openFlash(c, true)
		if err != nil {
			return err
		}
		defer release()
		if out := c.String("out"); out != "" {
			return saveRange(c, f, addr, length, out)
		}
		buf := make([]byte, length)
		if c.Bool("fast") {
			err = f.FastRead(c.Context, buf, addr)
		} else {
			err = f.Read(c.Context, buf, addr)
		}
		if err != nil {
			return err
		}
		console.Dump(addr, buf)
		return nil
	},
}

// saveRange streams a range into a file. The range is clipped at the end of
// the chip.
func saveRange(c *cli.Context, f *w25q128.Flash, addr uint32, length int, out string) error {
	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", out, err)
	}
	defer file.Close()
	src := io.NewSectionReader(w25q128.NewIO(c.Context, f), int64(addr), int64(length))
	n, err := io.Copy(file, src)
	if err != nil {
		return fmt.Errorf("could not save range to %s: %w", out, err)
	}
	console.PInfof(console.PictoFinish, "%d bytes from %#06x saved to %s", n, addr, out)
	return nil
}

// parseHex accepts "01FF23", "01 ff 23" and "0x01FF23".
func parseHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}

var WriteCmd = &cli.Command{
	Name:  "write",
	Usage: "write bytes, preserving the rest of every touched sector",
	Flags: []cli.Flag{
		addressFlag(true),
		&cli.StringFlag{Name: "data", Usage: "hex bytes to write (e.g. '01FF23')"},
		&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "file to write"},
		&cli.BoolFlag{Name: "no-check", Usage: "program without reading back, the range must be erased"},
	},
	Action: func(c *cli.Context) error {
		addr, err := address(c)
		if err != nil {
			return err
		}
		var data []byte
		switch {
		case c.IsSet("data") && c.IsSet("in"):
			return console.Exit(console.ExitUsage, "use either --data or --in")
		case c.IsSet("data"):
			data, err = parseHex(c.String("data"))
			if err != nil {
				return console.Exit(console.ExitUsage, "invalid data hex string: %v", err)
			}
		case c.IsSet("in"):
			data, err = os.ReadFile(c.String("in"))
			if err != nil {
				return fmt.Errorf("could not read %s: %w", c.String("in"), err)
			}
		default:
			return console.Exit(console.ExitUsage, "nothing to write: pass --data or --in")
		}
		f, release, err := openFlash(c, true)
		if err != nil {
			return err
		}
		defer release()
		if c.Bool("no-check") {
			err = f.WriteNoCheck(c.Context, data, addr)
		} else {
			err = f.Write(c.Context, data, addr)
		}
		if err != nil {
			return err
		}
		if console.IsVerbose(c.Context) {
			console.Dump(addr, data)
		}
		console.PInfof(console.PictoPencil, "wrote %d bytes at %#06x", len(data), addr)
		return nil
	},
}

func eraseUnitCmd(name, usage string, erase func(f *w25q128.Flash, c *cli.Context, addr uint32) error) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{addressFlag(true)},
		Action: func(c *cli.Context) error {
			addr, err := address(c)
			if err != nil {
				return err
			}
			f, release, err := openFlash(c, true)
			if err != nil {
				return err
			}
			defer release()
			if err := erase(f, c, addr); err != nil {
				return err
			}
			console.PInfof(console.PictoBroom, "%s containing %#06x erased", name, addr)
			return nil
		},
	}
}

var EraseCmd = &cli.Command{
	Name:  "erase",
	Usage: "erase sectors, blocks or the whole chip",
	Subcommands: []*cli.Command{
		eraseUnitCmd("sector", "erase the 4KB sector containing address", func(f *w25q128.Flash, c *cli.Context, addr uint32) error {
			return f.EraseSector(c.Context, addr)
		}),
		eraseUnitCmd("block32", "erase the 32KB block containing address", func(f *w25q128.Flash, c *cli.Context, addr uint32) error {
			return f.EraseBlock32K(c.Context, addr)
		}),
		eraseUnitCmd("block", "erase the 64KB block containing address", func(f *w25q128.Flash, c *cli.Context, addr uint32) error {
			return f.EraseBlock(c.Context, addr)
		}),
		{
			Name:  "range",
			Usage: "erase a sector aligned range",
			Flags: []cli.Flag{
				addressFlag(true),
				&cli.IntFlag{Name: "size", Aliases: []string{"s"}, Usage: "bytes to erase, multiple of 4KB", Required: true},
			},
			Action: func(c *cli.Context) error {
				addr, err := address(c)
				if err != nil {
					return err
				}
				size := c.Int("size")
				if size <= 0 {
					return console.Exit(console.ExitUsage, "size must be positive: %d", size)
				}
				f, release, err := openFlash(c, true)
				if err != nil {
					return err
				}
				defer release()
				if capacity := f.Geometry().Capacity; uint64(addr)+uint64(size) > uint64(capacity) {
					return console.Exit(console.ExitUsage, "range %#06x+%#x runs past the end of the chip (%#x)", addr, size, capacity)
				}
				if err := f.Erase(c.Context, addr, uint32(size)); err != nil {
					if errors.Is(err, w25q128.ErrUnaligned) {
						return console.Exit(console.ExitUsage, "%v", err)
					}
					return err
				}
				console.PInfof(console.PictoBroom, "%d bytes erased from %#06x", size, addr)
				return nil
			},
		},
		{
			Name:  "chip",
			Usage: "erase the whole chip",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
			},
			Action: func(c *cli.Context) error {
				if !c.Bool("yes") {
					ok, err := console.Confirm("Erase the whole chip?")
					if err != nil {
						return err
					}
					if !ok {
						return console.Exit(console.ExitCancelled, "chip erase cancelled")
					}
				}
				f, release, err := openFlash(c, true)
				if err != nil {
					return err
				}
				defer release()
				console.Infof("erasing chip, this can take a few minutes")
				if err := f.EraseChip(c.Context); err != nil {
					return err
				}
				console.PInfof(console.PictoBroom, "chip erased")
				return nil
			},
		},
	},
}

// Verdict renders the self test outcome the way the board display shows it.
func Verdict(report w25q128.TestReport, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("Flash Test: PASS (%s)", report)
	case errors.Is(err, w25q128.ErrIDMismatch):
		return "Flash Test: FAIL (ID ERR)"
	case errors.Is(err, w25q128.ErrSizeOutOfRange):
		return "Flash Test: FAIL (SIZE ERR)"
	default:
		return "Flash Test: FAIL (R/W ERR)"
	}
}

var TestCmd = &cli.Command{
	Name:  "test",
	Usage: "identify the chip and round-trip a pattern through sector 0 (destroys its contents)",
	Action: func(c *cli.Context) error {
		f, release, err := openFlash(c, true)
		if err != nil {
			return err
		}
		defer release()
		report, err := f.SelfTest(c.Context)
		if err != nil {
			console.Print(console.Red(Verdict(report, err)))
			return console.Exit(console.ExitTestFail, "%v", err)
		}
		console.Print(console.Green(Verdict(report, nil)))
		if console.IsVerbose(c.Context) {
			return printYAML(report)
		}
		return nil
	},
}

var PowerCmd = &cli.Command{
	Name:  "power",
	Usage: "deep power-down control",
	Subcommands: []*cli.Command{
		{
			Name:  "down",
			Usage: "enter deep power-down",
			Action: func(c *cli.Context) error {
				f, release, err := openFlash(c, false)
				if err != nil {
					return err
				}
				defer release()
				if err := f.PowerDown(c.Context); err != nil {
					return err
				}
				console.PInfof(console.PictoSleep, "flash powered down")
				return nil
			},
		},
		{
			Name:  "up",
			Usage: "release from deep power-down",
			Action: func(c *cli.Context) error {
				f, release, err := openFlash(c, false)
				if err != nil {
					return err
				}
				defer release()
				if err := f.WakeUp(c.Context); err != nil {
					return err
				}
				console.PInfof(console.PictoChip, "flash released from power-down")
				return nil
			},
		},
	},
}

var ResetCmd = &cli.Command{
	Name:  "reset",
	Usage: "software reset, aborts any program or erase in progress",
	Action: func(c *cli.Context) error {
		f, release, err := openFlash(c, false)
		if err != nil {
			return err
		}
		defer release()
		if err := f.Reset(c.Context); err != nil {
			return err
		}
		console.PInfof(console.PictoChip, "flash reset")
		return nil
	},
}

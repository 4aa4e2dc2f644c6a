package calib

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandKind is the verb of a terminal command.
type CommandKind int

const (
	CmdSet CommandKind = iota
	CmdShow
	CmdReset
	CmdSave
	CmdQuit
	CmdHelp
)

// Command is one parsed line of the tuning loop.
type Command struct {
	Kind  CommandKind
	Param Param
	Value float64
	// Path is the optional target of save.
	Path string
}

// Usage describes the accepted commands.
const Usage = `commands:
  <param> <value>   set tx|ty|tz (m) or roll|pitch|yaw (deg)
  show              print parameters and extrinsic
  reset             restore the initial parameters
  save [path]       write the extrinsic dump
  quit              exit`

// ParseCommand parses one input line. Blank lines and lines starting with
// '#' parse as CmdShow with ok false.
func ParseCommand(line string) (cmd Command, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return Command{Kind: CmdShow}, false, nil
	}
	verb := strings.ToLower(fields[0])
	switch verb {
	case "show", "print":
		return Command{Kind: CmdShow}, true, argc(fields, 1)
	case "reset":
		return Command{Kind: CmdReset}, true, argc(fields, 1)
	case "quit", "exit", "q":
		return Command{Kind: CmdQuit}, true, argc(fields, 1)
	case "help", "?":
		return Command{Kind: CmdHelp}, true, nil
	case "save":
		if len(fields) > 2 {
			return Command{}, true, fmt.Errorf("save takes at most one path")
		}
		c := Command{Kind: CmdSave}
		if len(fields) == 2 {
			c.Path = fields[1]
		}
		return c, true, nil
	}

	p, err := ParseParam(verb)
	if err != nil {
		return Command{}, true, err
	}
	if len(fields) != 2 {
		return Command{}, true, fmt.Errorf("usage: %s <value>", p)
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Command{}, true, fmt.Errorf("%s: invalid value %q", p, fields[1])
	}
	return Command{Kind: CmdSet, Param: p, Value: v}, true, nil
}

func argc(fields []string, n int) error {
	if len(fields) != n {
		return fmt.Errorf("%s takes no arguments", fields[0])
	}
	return nil
}

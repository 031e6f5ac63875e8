package driver

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"matter-go-light/internal/attr"
	"matter-go-light/internal/zcl"
	"matter-go-light/internal/zcl/clusters"
)

const helpText = "This can be used to simulate on-device control. " +
	"Usage: matter esp driver <set|get> <endpoint_id> <cluster_id> <attribute_id> [value]. " +
	"Example1: matter esp driver set 0x1001 0x0006 0x0000 1. " +
	"Example2: matter esp driver get 0x1001 0x0006 0x0000."

// Op is a console operation.
type Op string

const (
	OpSet Op = "set"
	OpGet Op = "get"
)

// Command is a parsed "driver" console command. Value is nil for get.
type Command struct {
	Op    Op
	Path  attr.Path
	Value zcl.Value
}

// ParseError describes malformed console input. It matches
// ErrInvalidArgument with errors.Is.
type ParseError struct {
	Arg    string // offending token, empty for arity errors
	Reason string
}

func (e *ParseError) Error() string {
	if e.Arg == "" {
		return "driver: " + e.Reason
	}
	return fmt.Sprintf("driver: %s: %q", e.Reason, e.Arg)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidArgument
}

// ParseCommand parses the arguments following "driver":
//
//	set <0xEP> <0xCL> <0xAT> <value>
//	get <0xEP> <0xCL> <0xAT>
//
// IDs must be 0x-prefixed hex fitting 16 bits. Set values are decimal and
// become a Uint8, except on/off where any non-zero value means on.
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &ParseError{Reason: "missing operation"}
	}

	var cmd Command
	switch Op(args[0]) {
	case OpSet:
		if len(args) != 5 {
			return cmd, &ParseError{Reason: fmt.Sprintf("set takes 4 arguments, got %d", len(args)-1)}
		}
	case OpGet:
		if len(args) != 4 {
			return cmd, &ParseError{Reason: fmt.Sprintf("get takes 3 arguments, got %d", len(args)-1)}
		}
	default:
		return cmd, &ParseError{Arg: args[0], Reason: "unknown operation"}
	}
	cmd.Op = Op(args[0])

	ids := make([]uint16, 3)
	for i, tok := range args[1:4] {
		id, err := parseHexID(tok)
		if err != nil {
			return Command{}, err
		}
		ids[i] = id
	}
	cmd.Path = attr.Path{Endpoint: ids[0], Cluster: ids[1], Attribute: ids[2]}

	if cmd.Op == OpSet {
		v, err := parseSetValue(cmd.Path, args[4])
		if err != nil {
			return Command{}, err
		}
		cmd.Value = v
	}
	return cmd, nil
}

func parseHexID(tok string) (uint16, error) {
	if len(tok) < 3 || tok[0] != '0' || (tok[1] != 'x' && tok[1] != 'X') {
		return 0, &ParseError{Arg: tok, Reason: "expected 0x-prefixed hex id"}
	}
	n, err := strconv.ParseUint(tok[2:], 16, 16)
	if err != nil {
		return 0, &ParseError{Arg: tok, Reason: "expected 16-bit hex id"}
	}
	return uint16(n), nil
}

func parseSetValue(p attr.Path, tok string) (zcl.Value, error) {
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return nil, &ParseError{Arg: tok, Reason: "expected decimal value"}
	}
	if p.Cluster == clusters.OnOffID && p.Attribute == clusters.AttrOnOff {
		return zcl.Bool(n != 0), nil
	}
	if n < 0 || n > 255 {
		return nil, &ParseError{Arg: tok, Reason: "value out of range 0-255"}
	}
	return zcl.Uint8(n), nil
}

// HandleCommand runs a "driver" console command. Parse failures are logged
// once and returned; tree errors are returned unchanged. A set writes any
// existing attribute regardless of its access flags.
func (d *Driver) HandleCommand(w io.Writer, args []string) error {
	cmd, err := ParseCommand(args)
	if err != nil {
		d.logger.Error("invalid driver command", "args", strings.Join(args, " "), "err", err)
		return err
	}

	switch cmd.Op {
	case OpSet:
		return d.tree.Update(cmd.Path, cmd.Value)
	case OpGet:
		v, err := d.tree.Get(cmd.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Endpoint 0x%04X Cluster 0x%04X Attribute 0x%04X is %s (%s)\n",
			cmd.Path.Endpoint, cmd.Path.Cluster, cmd.Path.Attribute, v, zcl.TypeName(v.Type()))
	}
	return nil
}

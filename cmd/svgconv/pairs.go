package main

import (
	"strings"

	"github.com/spf13/pflag"
)

// pairArgs is the --replacements flag value. Positional arguments that
// directly follow a --replacements value extend it until the next flag
// or "--" is parsed.
type pairArgs struct {
	flags  *pflag.FlagSet
	groups []pairGroup
}

type pairGroup struct {
	value string
	start int // index into flags.Args() of the first continued token
	end   int // -1 while the group is open
}

func newPairArgs(flags *pflag.FlagSet) *pairArgs {
	return &pairArgs{flags: flags}
}

func (p *pairArgs) Set(value string) error {
	p.close()
	p.groups = append(p.groups, pairGroup{value: value, start: len(p.flags.Args()), end: -1})
	return nil
}

func (p *pairArgs) String() string {
	values := make([]string, 0, len(p.groups))
	for _, g := range p.groups {
		values = append(values, g.value)
	}
	return strings.Join(values, " ")
}

func (p *pairArgs) Type() string {
	return "name:value"
}

func (p *pairArgs) close() {
	if n := len(p.groups); n > 0 && p.groups[n-1].end < 0 {
		p.groups[n-1].end = len(p.flags.Args())
	}
}

// watch makes every other flag in fs end the open group when it is parsed.
func (p *pairArgs) watch(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Value == pflag.Value(p) {
			return
		}
		if f.Value.Type() == "bool" {
			f.Value = closingBool{closingValue{Value: f.Value, pairs: p}}
			return
		}
		f.Value = closingValue{Value: f.Value, pairs: p}
	})
}

// split returns the pairs in command line order and the positional
// arguments no --replacements group claimed.
func (p *pairArgs) split(args []string) (pairs []string, extra []string) {
	claimed := make([]bool, len(args))
	dash := p.flags.ArgsLenAtDash()

	for _, g := range p.groups {
		pairs = append(pairs, g.value)

		end := g.end
		if end < 0 || end > len(args) {
			end = len(args)
		}
		if dash >= g.start && dash < end {
			end = dash
		}
		for i := g.start; i < end; i++ {
			pairs = append(pairs, args[i])
			claimed[i] = true
		}
	}

	for i, arg := range args {
		if !claimed[i] {
			extra = append(extra, arg)
		}
	}

	return pairs, extra
}

type closingValue struct {
	pflag.Value
	pairs *pairArgs
}

func (v closingValue) Set(value string) error {
	v.pairs.close()
	return v.Value.Set(value)
}

type closingBool struct {
	closingValue
}

func (closingBool) IsBoolFlag() bool { return true }

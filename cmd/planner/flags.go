package main

import (
	"strconv"
	"strings"
)

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// idList collects a repeatable int64 flag; "1,2" and "-f 1 -f 2" both work.
type idList []int64

func (l *idList) String() string {
	parts := make([]string, len(*l))
	for i, id := range *l {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func (l *idList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return err
		}
		*l = append(*l, id)
	}
	return nil
}

// optionalPrice is a price flag where empty means "no price".
type optionalPrice struct {
	value *float64
}

func (p *optionalPrice) String() string {
	if p.value == nil {
		return ""
	}
	return strconv.FormatFloat(*p.value, 'f', -1, 64)
}

func (p *optionalPrice) Set(v string) error {
	if strings.TrimSpace(v) == "" {
		p.value = nil
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	p.value = &f
	return nil
}

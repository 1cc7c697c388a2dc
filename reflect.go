// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

var lineType = reflect.TypeOf(Line(0))

type field struct {
	index int
	pin   string
	bus   int // bus size, 0 for a single pin
	input bool
}

// MakePart wraps an Observer into a custom part.
// Input/output pins are identified by field tags.
//
// The field tag must be `hw:"in"` or `hw:"out"` to identify input and output
// pins. By default, the pin name is the field name in lowercase. A specific
// pin name can be forced by adding it in the tag: `hw:"in,pin_name"`.
//
// Pins must be of type Line, buses arrays of Line.
//
// When the part is mounted, a new value of the same type is allocated, its
// fields are set to the lines connected to the part's pins, and it is
// subscribed to every input line. It is then updated once, so that parts with
// constant inputs fire at mount time. Like gates, Update implementations should
// return early until all the inputs they need are set, and should not set
// their outputs more than once.
//
func MakePart(t Observer) *PartSpec {
	typ := reflect.TypeOf(t)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if k := typ.Kind(); k != reflect.Struct {
		panic(errors.Errorf("unsupported type %q for %q", k, typ.Name()))
	}

	sp := &PartSpec{Name: typ.Name()}
	fields := make([]field, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hw")
		if !ok {
			continue
		}
		fd := field{index: i, pin: strings.ToLower(f.Name)}
		tv := strings.Split(tag, ",")
		if len(tv) > 2 {
			panic(errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name()))
		}
		if len(tv) == 2 && tv[1] != "" {
			fd.pin = tv[1]
		}
		switch tv[0] {
		case "in":
			fd.input = true
		case "out":
		default:
			panic(errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name()))
		}

		var pins []string
		switch ft := f.Type; {
		case ft == lineType:
			pins = []string{fd.pin}
		case ft.Kind() == reflect.Array && ft.Elem() == lineType:
			fd.bus = ft.Len()
			for j := 0; j < fd.bus; j++ {
				pins = append(pins, BusPinName(fd.pin, j))
			}
		default:
			panic(errors.Errorf("unsupported type %q for field %q in %q", ft, f.Name, typ.Name()))
		}
		if fd.input {
			sp.Inputs = append(sp.Inputs, pins...)
		} else {
			sp.Outputs = append(sp.Outputs, pins...)
		}
		fields = append(fields, fd)
	}
	sp.Mount = mountPart(typ, fields)
	return sp
}

func mountPart(typ reflect.Type, fields []field) MountFn {
	return func(s *Socket) error {
		v := reflect.New(typ)
		e := v.Elem()
		var ins []Line
		for _, fd := range fields {
			fv := e.Field(fd.index)
			var ls []Line
			if fd.bus == 0 {
				l := s.Pin(fd.pin)
				fv.Set(reflect.ValueOf(l))
				ls = []Line{l}
			} else {
				ls = s.Bus(fd.pin, fd.bus)
				for j, l := range ls {
					fv.Index(j).Set(reflect.ValueOf(l))
				}
			}
			if fd.input {
				ins = append(ins, ls...)
			}
		}

		o := v.Interface().(Observer)
		c := s.Circuit()
		for _, l := range ins {
			c.Observe(l, o)
		}
		return o.Update(c)
	}
}

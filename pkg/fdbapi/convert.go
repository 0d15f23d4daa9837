package fdbapi

import (
	"fmt"

	"github.com/veesix-networks/fdbd/pkg/models/fdb"
	"google.golang.org/protobuf/types/known/structpb"
)

// MacSpec names a MAC entry by configured port name.
type MacSpec struct {
	MAC     string
	Port    string
	Type    string
	ClassID *uint32
}

// MacIntent is the wire form of an add, remove or change request.
type MacIntent struct {
	Op  string
	Old *MacSpec
	New *MacSpec
}

func EntryStruct(e fdb.L2Entry) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"vlan_id":   structpb.NewNumberValue(float64(e.VlanID)),
		"mac":       structpb.NewStringValue(e.MAC),
		"validated": structpb.NewBoolValue(e.Validated),
	}
	if e.Port != nil {
		fields["port"] = structpb.NewNumberValue(float64(*e.Port))
	}
	if e.Trunk != nil {
		fields["trunk"] = structpb.NewNumberValue(float64(*e.Trunk))
	}
	if e.ClassID != nil {
		fields["class_id"] = structpb.NewNumberValue(float64(*e.ClassID))
	}
	return &structpb.Struct{Fields: fields}
}

func EntryFromStruct(s *structpb.Struct) fdb.L2Entry {
	f := s.GetFields()
	e := fdb.L2Entry{
		VlanID:    fdb.VlanID(f["vlan_id"].GetNumberValue()),
		MAC:       f["mac"].GetStringValue(),
		Validated: f["validated"].GetBoolValue(),
	}
	if v, ok := f["port"]; ok {
		p := fdb.PortID(v.GetNumberValue())
		e.Port = &p
	}
	if v, ok := f["trunk"]; ok {
		t := fdb.AggregatePortID(v.GetNumberValue())
		e.Trunk = &t
	}
	if v, ok := f["class_id"]; ok {
		e.ClassID = fdb.Uint32Ptr(uint32(v.GetNumberValue()))
	}
	return e
}

func EntriesList(entries []fdb.L2Entry) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(entries))
	for _, e := range entries {
		values = append(values, structpb.NewStructValue(EntryStruct(e)))
	}
	return &structpb.ListValue{Values: values}
}

func StringList(lines []string) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(lines))
	for _, l := range lines {
		values = append(values, structpb.NewStringValue(l))
	}
	return &structpb.ListValue{Values: values}
}

func (m *MacSpec) value() *structpb.Value {
	fields := map[string]*structpb.Value{
		"mac":  structpb.NewStringValue(m.MAC),
		"port": structpb.NewStringValue(m.Port),
	}
	if m.Type != "" {
		fields["type"] = structpb.NewStringValue(m.Type)
	}
	if m.ClassID != nil {
		fields["class_id"] = structpb.NewNumberValue(float64(*m.ClassID))
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: fields})
}

func (i MacIntent) Struct() (*structpb.Struct, error) {
	if i.Op == "" {
		return nil, fmt.Errorf("mac intent without op")
	}
	fields := map[string]*structpb.Value{"op": structpb.NewStringValue(i.Op)}
	if i.Old != nil {
		fields["old"] = i.Old.value()
	}
	if i.New != nil {
		fields["new"] = i.New.value()
	}
	return &structpb.Struct{Fields: fields}, nil
}

func MacIntentFromStruct(s *structpb.Struct) (MacIntent, error) {
	f := s.GetFields()
	intent := MacIntent{Op: f["op"].GetStringValue()}
	if intent.Op == "" {
		return MacIntent{}, fmt.Errorf("mac intent without op")
	}

	var err error
	if intent.Old, err = specFromValue("old", f["old"]); err != nil {
		return MacIntent{}, err
	}
	if intent.New, err = specFromValue("new", f["new"]); err != nil {
		return MacIntent{}, err
	}
	return intent, nil
}

func specFromValue(name string, v *structpb.Value) (*MacSpec, error) {
	if v == nil {
		return nil, nil
	}
	s := v.GetStructValue()
	if s == nil {
		return nil, fmt.Errorf("%s: not a struct", name)
	}
	f := s.GetFields()
	spec := &MacSpec{
		MAC:  f["mac"].GetStringValue(),
		Port: f["port"].GetStringValue(),
		Type: f["type"].GetStringValue(),
	}
	if spec.MAC == "" || spec.Port == "" {
		return nil, fmt.Errorf("%s: mac and port are required", name)
	}
	if c, ok := f["class_id"]; ok {
		spec.ClassID = fdb.Uint32Ptr(uint32(c.GetNumberValue()))
	}
	return spec, nil
}

package hwstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/veesix-networks/fdbd/pkg/models/fdb"
	"github.com/veesix-networks/fdbd/pkg/opdb"
)

type journalRecord struct {
	SwitchID   uint32  `json:"switch_id"`
	VLAN       uint16  `json:"vlan"`
	MAC        string  `json:"mac"`
	Type       string  `json:"type"`
	BridgePort uint32  `json:"bridge_port"`
	PortType   uint8   `json:"port_type"`
	PortID     uint32  `json:"port_id"`
	Handle     uint32  `json:"handle"`
	Metadata   *uint32 `json:"metadata,omitempty"`
	Interface  uint32  `json:"interface"`
}

func recordFor(obj *Object) journalRecord {
	return journalRecord{
		SwitchID:   obj.key.SwitchID,
		VLAN:       uint16(obj.key.VLAN),
		MAC:        obj.key.MAC.String(),
		Type:       obj.attrs.Type.String(),
		BridgePort: uint32(obj.attrs.BridgePort.ID),
		PortType:   uint8(obj.attrs.BridgePort.Port.Type),
		PortID:     obj.attrs.BridgePort.Port.ID,
		Handle:     uint32(obj.attrs.BridgePort.Handle),
		Metadata:   obj.attrs.Metadata,
		Interface:  uint32(obj.owner.Interface),
	}
}

func (r journalRecord) attributes() (Attributes, error) {
	typ, err := fdb.ParseEntryType(r.Type)
	if err != nil {
		return Attributes{}, err
	}
	return Attributes{
		Type: typ,
		BridgePort: fdb.BridgePort{
			ID:     fdb.BridgePortID(r.BridgePort),
			Port:   fdb.PortDescriptor{Type: fdb.PortType(r.PortType), ID: r.PortID},
			Handle: fdb.PortHandle(r.Handle),
		},
		Metadata: r.Metadata,
	}, nil
}

// checkpoint and forget are called with s.mu held. Journal failures only cost
// warm boot fidelity, so they are logged rather than returned.
func (s *Store) checkpoint(obj *Object) {
	if s.journal == nil {
		return
	}

	data, err := json.Marshal(recordFor(obj))
	if err != nil {
		s.logger.Warn("Failed to marshal object for checkpoint", "key", obj.key.String(), "error", err)
		return
	}

	if err := s.journal.Put(context.Background(), opdb.NamespaceFdbObjects, obj.key.String(), data); err != nil {
		s.logger.Warn("Failed to checkpoint object", "key", obj.key.String(), "error", err)
	}
}

func (s *Store) forget(key fdb.HardwareKey) {
	if s.journal == nil {
		return
	}

	if err := s.journal.Delete(context.Background(), opdb.NamespaceFdbObjects, key.String()); err != nil {
		s.logger.Warn("Failed to delete object checkpoint", "key", key.String(), "error", err)
	}
}

// Restore rebuilds the warm boot handles from the dataplane FDB. Fields the
// dataplane cannot report, such as the bridge port ID and metadata, come from
// the journal. Journal records without a dataplane entry are dropped.
func (s *Store) Restore(ctx context.Context, journal opdb.Store) error {
	entries, err := s.dp.DumpFdbEntries()
	if err != nil {
		return fmt.Errorf("dump dataplane fdb: %w", err)
	}

	records := make(map[string]journalRecord)
	if journal != nil {
		err := journal.Load(ctx, opdb.NamespaceFdbObjects, func(key string, value []byte) error {
			var rec journalRecord
			if err := json.Unmarshal(value, &rec); err != nil {
				s.logger.Warn("Failed to unmarshal object from opdb", "key", key, "error", err)
				return nil
			}
			records[key] = rec
			return nil
		})
		if err != nil {
			return fmt.Errorf("load journal: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var restored, journaled int
	for _, e := range entries {
		key := e.Key
		key.SwitchID = s.switchID
		if _, claimed := s.objects[key]; claimed {
			continue
		}

		obj := &Object{
			store:    s,
			key:      key,
			warmboot: true,
			attrs: Attributes{
				Type:     e.Type,
				Metadata: e.Metadata,
				BridgePort: fdb.BridgePort{
					ID:     e.BridgePort,
					Handle: e.Handle,
				},
			},
		}

		if rec, ok := records[key.String()]; ok {
			delete(records, key.String())
			if attrs, err := rec.attributes(); err == nil {
				if attrs.BridgePort.Handle == e.Handle {
					obj.attrs.BridgePort = attrs.BridgePort
				}
				if obj.attrs.Metadata == nil {
					obj.attrs.Metadata = attrs.Metadata
				}
			}
			journaled++
		}

		s.warmboot[key] = obj
		restored++
	}

	for key := range s.objects {
		delete(records, key.String())
	}

	if journal != nil {
		for key := range records {
			if err := journal.Delete(ctx, opdb.NamespaceFdbObjects, key); err != nil {
				s.logger.Warn("Failed to drop stale object checkpoint", "key", key, "error", err)
			}
		}
	}

	s.logger.Info("Rediscovered dataplane FDB",
		"warmboot_handles", restored,
		"from_journal", journaled,
		"stale_checkpoints", len(records))
	return nil
}

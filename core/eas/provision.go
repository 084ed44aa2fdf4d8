package eas

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"easgateway/core/domain"
	"easgateway/core/port/in"
	"easgateway/pkg/apperr"
)

// Provision implements the two-step policy key exchange (spec.md §4.5.1).
// Step one (req.RequestedPolicyKey == "") issues a fresh pending key and
// leaves the device in ProvisionPending. Step two (the client echoes that
// key back) moves the device to ProvisionProvisioned with that key as its
// active PolicyKey. Any other value at step two is rejected without
// advancing state, mirroring Z-Push's refusal to half-accept a provisioning
// handshake.
func (s *Service) Provision(ctx context.Context, rc in.RequestContext, req in.ProvisionRequest) (in.ProvisionResult, error) {
	trace := s.Trace.Command(rc.Principal.ID, rc.Device.DeviceID, "Provision")

	device := rc.Device
	if req.RequestedPolicyKey == "" {
		key, err := generatePolicyKey()
		if err != nil {
			return in.ProvisionResult{}, fmt.Errorf("eas: generate policy key: %w", err)
		}
		device.PolicyKey = key
		device.State = domain.ProvisionPending
		if err := s.Devices.Upsert(ctx, &device); err != nil {
			return in.ProvisionResult{}, fmt.Errorf("eas: stage provisioning for device %s: %w", device.DeviceID, err)
		}
		trace.StateTransition(domain.RootCollectionID, "state", string(rc.Device.State), string(device.State))
		return in.ProvisionResult{Status: "1", PolicyKey: key}, nil
	}

	if device.State != domain.ProvisionPending || req.RequestedPolicyKey != device.PolicyKey {
		trace.Event("provision acknowledge mismatch", map[string]any{"requested": req.RequestedPolicyKey})
		return in.ProvisionResult{Status: "2"}, nil
	}

	device.State = domain.ProvisionProvisioned
	if err := s.Devices.Upsert(ctx, &device); err != nil {
		return in.ProvisionResult{}, fmt.Errorf("eas: confirm provisioning for device %s: %w", device.DeviceID, err)
	}
	trace.StateTransition(domain.RootCollectionID, "state", string(domain.ProvisionPending), string(device.State))
	return in.ProvisionResult{Status: "1", PolicyKey: device.PolicyKey}, nil
}

// generatePolicyKey mints a random decimal policy key in the range EAS
// clients expect (a positive 32-bit-ish integer rendered as a string),
// never the sentinel "0" (spec.md's UnprovisionedPolicyKey).
func generatePolicyKey() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	n := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	n &= 0x7FFFFFFF
	if n == 0 {
		n = uint32(time.Now().UnixNano() & 0x7FFFFFFF)
		if n == 0 {
			n = 1
		}
	}
	return fmt.Sprintf("%d", n), nil
}

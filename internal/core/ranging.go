package core

import (
	"errors"

	"github.com/hasanawais/pica/internal/model"
	"github.com/hasanawais/pica/pkg/uci"
)

// ErrExtendedAddressUnsupported names the extended (8-byte) address case
// that ranging does not support. runRanging does not return it: a pass for
// a device with an extended address does nothing, and extended destination
// addresses are skipped, so the process is never aborted over one
// session's configuration.
var ErrExtendedAddressUnsupported = errors.New("core: extended mac addresses are not supported for ranging")

// measurementFOM is the figure-of-merit reported for every angle this
// emulator produces: there is no real antenna array behind it, so every
// angle is maximally confident.
const measurementFOM = 100

// measurementRSSI is the RSSI this emulator reports for every
// measurement: UCI's sentinel for "not computed".
const measurementRSSI = 0xFF

// runRanging performs one ranging pass for (device, session): it measures
// distance and bearing against every configured destination that currently
// resolves to an active, compatible peer, builds one
// ShortMacTwoWaySessionInfoNtf carrying every resolved measurement, and
// advances the session's sequence number only when a notification is
// actually emitted. Nothing is sent and the sequence number does not
// advance for destinations that cannot currently be resolved.
func (c *Core) runRanging(handle int, sessionID uint32) {
	device, ok := c.registry.deviceByHandle(handle)
	if !ok {
		return
	}
	session, ok := device.GetSession(sessionID)
	if !ok || session.State != SessionStateActive {
		return
	}

	if device.MacAddress.IsExtended() {
		return
	}

	var measurements []uci.Measurement
	for _, destMac := range session.destMacAddresses() {
		if destMac.IsExtended() {
			continue
		}
		peerPosition, found := c.resolveRangingPeer(destMac, sessionID, session.AppConfig)
		if !found {
			continue
		}

		localDistance, localAzimuth, localElevation := device.Position.RangeAzimuthElevation(peerPosition)
		_, remoteAzimuth, remoteElevation := peerPosition.RangeAzimuthElevation(device.Position)

		measurements = append(measurements, uci.Measurement{
			MacAddress:                 destMac,
			Status:                     uci.StatusOk,
			Distance:                   localDistance,
			AoaAzimuth:                 localAzimuth,
			AoaElevation:               localElevation,
			AoaDestinationAzimuth:      remoteAzimuth,
			AoaDestinationElevation:    remoteElevation,
			AoaAzimuthFOM:              measurementFOM,
			AoaElevationFOM:            measurementFOM,
			AoaDestinationAzimuthFOM:   measurementFOM,
			AoaDestinationElevationFOM: measurementFOM,
			RSSI:                       measurementRSSI,
		})
	}

	if len(measurements) == 0 {
		return
	}

	if session.AppConfig.RangingDataNtf != uci.RangingNtfDisable {
		session.SequenceNumber++
		packet := uci.BuildShortMacTwoWaySessionInfoNtf(session.SequenceNumber, sessionID, measurements)
		device.enqueue(packet)
	}
}

// resolveRangingPeer finds the current position of a ranging destination,
// if it is currently eligible to range with: an anchor always qualifies,
// since it carries no session state of its own, while another UCI device
// must own a session with the same session_id that is Active and whose
// app_config is compatible with the caller's (opposite roles, same
// channel).
func (c *Core) resolveRangingPeer(mac model.MacAddress, sessionID uint32, appConfig AppConfig) (model.Position, bool) {
	if d, ok := c.registry.deviceByMac(mac); ok {
		peerSession, ok := d.GetSession(sessionID)
		if !ok || peerSession.State != SessionStateActive {
			return model.Position{}, false
		}
		if !appConfig.canStartRangingWithPeer(peerSession.AppConfig) {
			return model.Position{}, false
		}
		return d.Position, true
	}
	if a, ok := c.registry.anchors[mac]; ok {
		return a.Position, true
	}
	return model.Position{}, false
}

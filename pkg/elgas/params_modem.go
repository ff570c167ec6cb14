// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import "encoding/hex"

// Modem is the configuration of the built-in GSM/GPRS modem
type Modem struct {
	objectTag
	Number                                uint8  `json:"number"`
	BitControl                            uint8  `json:"bit_control_0"`
	Title                                 string `json:"title"`
	ModemType                             uint8  `json:"modem_type"`
	Initialization                        string `json:"initialization"`
	CallToDispatching                     string `json:"call_to_dispatching"`
	ModemHangUp                           string `json:"modem_hang_up"`
	SpecialInitialization                 string `json:"special_initialization"`
	IPAddressForRegistrationAndDiagnostic string `json:"ip_address_for_registration_and_diagnostics"`
	IPAddressForCallingToDispatching      string `json:"ip_address_for_calling_to_dispatching"`
	RegistrationSendPeriod                uint8  `json:"registration_send_period"`
	AuthenticationMode                    uint8  `json:"authentication_mode"`
	PortForRegistration                   uint16 `json:"port_for_registration"`
	PortForCallingToDispatching           uint16 `json:"port_for_calling_to_dispatching"`
	SMSCall                               string `json:"sms_call"`
	GPRSUserName                          string `json:"gprs_user_name"`
	GPRSPassword                          string `json:"gprs_password"`
	IPAddressForPing                      string `json:"ip_address_for_ping"`
	PingPeriod                            uint16 `json:"ping_period"`
	TransitionIntoCommandMode             string `json:"transition_into_command_mode"`
	PIN                                   string `json:"pin"`
	OwnerSIMNumber                        string `json:"owner_sim_number"`
}

// Label implements Record
func (m *Modem) Label() string { return m.Title }

func decodeModem(t ObjectType, body []byte) (Record, error) {
	r := newReader("Modem", body)
	rec := &Modem{objectTag: objectTag{t}}
	rec.Number = r.u8("number")
	rec.BitControl = r.u8("bit_control_0")
	rec.Title = r.name("title", 7)
	rec.ModemType = r.u8("modem_type")
	rec.Initialization = r.name("initialization", 32)
	rec.CallToDispatching = r.name("call_to_dispatching", 32)
	rec.ModemHangUp = r.name("modem_hang_up", 8)
	rec.SpecialInitialization = r.name("special_initialization", 80)
	rec.IPAddressForRegistrationAndDiagnostic = ipv4(r.take("ip_address_for_registration", 4))
	rec.IPAddressForCallingToDispatching = ipv4(r.take("ip_address_for_calling", 4))
	rec.RegistrationSendPeriod = r.u8("registration_send_period")
	rec.AuthenticationMode = r.u8("authentication_mode")
	rec.PortForRegistration = r.u16("port_for_registration")
	rec.PortForCallingToDispatching = r.u16("port_for_calling_to_dispatching")
	rec.SMSCall = r.name("sms_call", 32)
	rec.GPRSUserName = r.name("gprs_user_name", 49)
	// Secrets are not text; keep them as hex
	rec.GPRSPassword = hex.EncodeToString(r.take("gprs_password", 33))
	rec.IPAddressForPing = ipv4(r.take("ip_address_for_ping", 4))
	rec.PingPeriod = r.u16("ping_period")
	rec.TransitionIntoCommandMode = r.name("transition_into_command_mode", 8)
	rec.PIN = hex.EncodeToString(r.take("pin", 9))
	rec.OwnerSIMNumber = r.name("owner_sim_number", 17)
	return finish(rec, r)
}

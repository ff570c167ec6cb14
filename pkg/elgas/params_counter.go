// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

// Counter is a volume counter. DoubleCounter shares the layout with an
// 8-byte value.
type Counter struct {
	objectTag
	QuantityHeader
	ArchiveFlags
	InFactoryArchive        bool    `json:"in_factory_archive"`
	AcceptCountingDirection bool    `json:"accept_counting_direction"`
	Unit                    string  `json:"unit"`
	Digit                   float64 `json:"digit"`
	SerialNumberOfGasMeter  uint32  `json:"serial_number_of_gas_meter"`
	ErrorBitOrders
	ArchiveAddresses
	AddressInBillingArchiveRecord uint16 `json:"address_in_billing_archive_record"`
	SerialNumberOfGasMeterText    string `json:"serial_number_of_gas_meter_text"`
	Decimals                      *uint8 `json:"decimals"`
	Trailing                      []byte `json:"trailing,omitempty"`
}

func decodeCounter(t ObjectType, body []byte) (Record, error) {
	r := newReader("Counter", body)
	rec := &Counter{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.ArchiveFlags = archiveFlags(rec.BitControl)
	rec.InFactoryArchive = rec.BitControl&bitFactoryArchive != 0
	rec.AcceptCountingDirection = rec.BitControl&bitCountingDirection != 0
	rec.Unit = r.unit("unit", 8)
	rec.Digit = r.f64("digit")
	rec.SerialNumberOfGasMeter = r.u32("serial_number_of_gas_meter")
	rec.ErrorBitOrders = readErrorBitOrders(r)
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.AddressInBillingArchiveRecord = r.u16("address_in_billing_archive_record")
	rec.SerialNumberOfGasMeterText = r.name("serial_number_of_gas_meter_text", 17)
	rec.Decimals = r.decimals()
	rec.Trailing = r.rest()
	return finish(rec, r)
}

// StandardCounter is a volume counter converted to base conditions
type StandardCounter struct {
	objectTag
	QuantityHeader
	Unit                   string `json:"unit"`
	NumberOfPrimaryCounter uint8  `json:"number_of_primary_counter"`
	NumberOfConversion     uint8  `json:"number_of_conversion"`
	ArchiveAddresses
	AddressInBillingArchiveRecord uint16 `json:"address_in_billing_archive_record"`
	Decimals                      *uint8 `json:"decimals"`
}

func decodeStandardCounter(t ObjectType, body []byte) (Record, error) {
	r := newReader("StandardCounter", body)
	rec := &StandardCounter{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.Unit = r.unit("unit", 8)
	rec.NumberOfPrimaryCounter = r.u8("number_of_primary_counter")
	rec.NumberOfConversion = r.u8("number_of_conversion")
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.AddressInBillingArchiveRecord = r.u16("address_in_billing_archive_record")
	rec.Decimals = r.decimals()
	return finish(rec, r)
}

// ErrorCounter counts volume while the device is in an error state.
// CorrectionCounter and DoubleErrorCounter share the layout.
type ErrorCounter struct {
	objectTag
	QuantityHeader
	Unit                   string  `json:"unit"`
	Digit                  float64 `json:"digit"`
	NumberOfPrimaryCounter uint8   `json:"number_of_primary_counter"`
	ArchiveAddresses
	AddressInBillingArchiveRecord uint16 `json:"address_in_billing_archive_record"`
	Decimals                      *uint8 `json:"decimals"`
	Trailing                      []byte `json:"trailing,omitempty"`
}

func decodeErrorCounter(t ObjectType, body []byte) (Record, error) {
	r := newReader("ErrorCounter", body)
	rec := &ErrorCounter{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.Unit = r.unit("unit", 8)
	rec.Digit = r.f64("digit")
	rec.NumberOfPrimaryCounter = r.u8("number_of_primary_counter")
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.AddressInBillingArchiveRecord = r.u16("address_in_billing_archive_record")
	rec.Decimals = r.decimals()
	rec.Trailing = r.rest()
	return finish(rec, r)
}

// ErrorStandardCounter is the base-conditions volume counted during errors
type ErrorStandardCounter struct {
	objectTag
	QuantityHeader
	ArchiveFlags
	InFactoryArchive        bool   `json:"in_factory_archive"`
	Unit                    string `json:"unit"`
	NumberOfStandardCounter uint8  `json:"number_of_standard_counter"`
	ArchiveAddresses
	AddressInBillingArchiveRecord uint16 `json:"address_in_billing_archive_record"`
	Decimals                      *uint8 `json:"decimals"`
	Trailing                      []byte `json:"trailing,omitempty"`
}

func decodeErrorStandardCounter(t ObjectType, body []byte) (Record, error) {
	r := newReader("ErrorStandardCounter", body)
	rec := &ErrorStandardCounter{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.ArchiveFlags = archiveFlags(rec.BitControl)
	rec.InFactoryArchive = rec.BitControl&bitFactoryArchive != 0
	rec.Unit = r.unit("unit", 8)
	rec.NumberOfStandardCounter = r.u8("number_of_standard_counter")
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.AddressInBillingArchiveRecord = r.u16("address_in_billing_archive_record")
	rec.Decimals = r.decimals()
	rec.Trailing = r.rest()
	return finish(rec, r)
}

// TariffCounter counts volume inside one tariff. DoubleTariffCounter shares
// the layout.
type TariffCounter struct {
	objectTag
	QuantityHeader
	ArchiveFlags
	InFactoryArchive       bool    `json:"in_factory_archive"`
	Unit                   string  `json:"unit"`
	Digit                  float64 `json:"digit"`
	NumberOfPrimaryCounter uint8   `json:"number_of_primary_counter"`
	Tariff                 uint8   `json:"tariff"`
	ArchiveAddresses
	AddressInBillingArchiveRecord uint16 `json:"address_in_billing_archive_record"`
	Decimals                      *uint8 `json:"decimals"`
}

func decodeTariffCounter(t ObjectType, body []byte) (Record, error) {
	r := newReader("TariffCounter", body)
	rec := &TariffCounter{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.ArchiveFlags = archiveFlags(rec.BitControl)
	rec.InFactoryArchive = rec.BitControl&bitFactoryArchive != 0
	rec.Unit = r.unit("unit", 8)
	rec.Digit = r.f64("digit")
	rec.NumberOfPrimaryCounter = r.u8("number_of_primary_counter")
	rec.Tariff = r.u8("tariff")
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.AddressInBillingArchiveRecord = r.u16("address_in_billing_archive_record")
	rec.Decimals = r.decimals()
	return finish(rec, r)
}

// BaseTariffCounter counts base-conditions volume inside one tariff
type BaseTariffCounter struct {
	objectTag
	QuantityHeader
	Unit                string `json:"unit"`
	NumberOfBaseCounter uint8  `json:"number_of_base_counter"`
	Tariff              uint8  `json:"tariff"`
	ArchiveAddresses
	AddressInBillingArchiveRecord uint16 `json:"address_in_billing_archive_record"`
	Decimals                      *uint8 `json:"decimals"`
}

func decodeBaseTariffCounter(t ObjectType, body []byte) (Record, error) {
	r := newReader("BaseTariffCounter", body)
	rec := &BaseTariffCounter{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.Unit = r.unit("unit", 8)
	rec.NumberOfBaseCounter = r.u8("number_of_base_counter")
	rec.Tariff = r.u8("tariff")
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.AddressInBillingArchiveRecord = r.u16("address_in_billing_archive_record")
	rec.Decimals = r.decimals()
	return finish(rec, r)
}

// DifferenceCounter is the difference between two counters.
// DifferenceBaseCounter shares the layout.
type DifferenceCounter struct {
	objectTag
	QuantityHeader
	ArchiveFlags
	IsDouble               bool    `json:"is_double"`
	Unit                   string  `json:"unit"`
	Digit                  float64 `json:"digit"`
	NumberOfPrimaryCounter uint8   `json:"number_of_primary_counter"`
	ArchiveAddresses
	AddressInBillingArchiveRecord uint16 `json:"address_in_billing_archive_record"`
	Decimals                      *uint8 `json:"decimals"`
}

func decodeDifferenceCounter(t ObjectType, body []byte) (Record, error) {
	r := newReader("DifferenceCounter", body)
	rec := &DifferenceCounter{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.ArchiveFlags = archiveFlags(rec.BitControl)
	rec.IsDouble = rec.BitControl&bitDoubleDifference != 0
	rec.Unit = r.unit("unit", 8)
	rec.Digit = r.f64("digit")
	rec.NumberOfPrimaryCounter = r.u8("number_of_primary_counter")
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.AddressInBillingArchiveRecord = r.u16("address_in_billing_archive_record")
	rec.Decimals = r.decimals()
	return finish(rec, r)
}

// Energy is the energy computed from a standard counter and a calorific
// value. ErrorEnergy shares the layout.
type Energy struct {
	objectTag
	QuantityHeader
	Unit                    string `json:"unit"`
	NumberOfStandardCounter uint8  `json:"number_of_standard_counter"`
	NumberOfCalorificValue  uint8  `json:"number_of_calorific_value"`
	NumberOfConversion      uint8  `json:"number_of_conversion"`
	ArchiveAddresses
	AddressInBillingArchiveRecord uint16 `json:"address_in_billing_archive_record"`
	Decimals                      *uint8 `json:"decimals"`
}

func decodeEnergy(t ObjectType, body []byte) (Record, error) {
	r := newReader("Energy", body)
	rec := &Energy{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.Unit = r.unit("unit", 8)
	rec.NumberOfStandardCounter = r.u8("number_of_standard_counter")
	rec.NumberOfCalorificValue = r.u8("number_of_calorific_value")
	rec.NumberOfConversion = r.u8("number_of_conversion")
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.AddressInBillingArchiveRecord = r.u16("address_in_billing_archive_record")
	rec.Decimals = r.decimals()
	return finish(rec, r)
}

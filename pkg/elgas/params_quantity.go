// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

// Records in this file follow the quantity layout. Several of them carry
// Trailing: bytes some firmware appends after the documented fields. They
// are kept as received instead of rejected.

func finish(rec Record, r *reader) (Record, error) {
	if err := r.done(); err != nil {
		return nil, err
	}
	return rec, nil
}

// AnalogQuantity is a measured analog input such as pressure or temperature
type AnalogQuantity struct {
	objectTag
	QuantityHeader
	ArchiveFlags
	InFastArchive1           bool    `json:"in_fast_archive_1"`
	InFastArchive2           bool    `json:"in_fast_archive_2"`
	Unit                     string  `json:"unit"`
	Digit                    float32 `json:"digit"`
	Offset                   float32 `json:"offset"`
	LowerLimitMeasuringRange float32 `json:"lower_limit_measuring_range"`
	UpperLimitMeasuringRange float32 `json:"upper_limit_measuring_range"`
	SerialNumberTransducer   uint32  `json:"serial_number_transducer"`
	ErrorBitOrders
	ArchiveAddresses
	SamplesInFastArchive uint8  `json:"samples_in_fast_archive"`
	Decimals             *uint8 `json:"decimals"`
	Trailing             []byte `json:"trailing,omitempty"`
}

func decodeAnalogQuantity(t ObjectType, body []byte) (Record, error) {
	r := newReader("AnalogQuantity", body)
	rec := &AnalogQuantity{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.ArchiveFlags = archiveFlags(rec.BitControl)
	rec.InFastArchive1 = rec.BitControl&bitFastArchive1 != 0
	rec.InFastArchive2 = rec.BitControl&bitFastArchive2 != 0
	rec.Unit = r.unit("unit", 8)
	rec.Digit = r.f32("digit")
	rec.Offset = r.f32("offset")
	rec.LowerLimitMeasuringRange = r.f32("lower_limit_measuring_range")
	rec.UpperLimitMeasuringRange = r.f32("upper_limit_measuring_range")
	rec.SerialNumberTransducer = r.u32("serial_number_transducer")
	rec.ErrorBitOrders = readErrorBitOrders(r)
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.SamplesInFastArchive = r.u8("samples_in_fast_archive")
	rec.Decimals = r.decimals()
	rec.Trailing = r.rest()
	return finish(rec, r)
}

// FlowRate is an actual-conditions flow rate
type FlowRate struct {
	objectTag
	QuantityHeader
	ArchiveFlags
	Unit string `json:"unit"`
	ErrorBitOrders
	ArchiveAddresses
	Decimals *uint8 `json:"decimals"`
	Trailing []byte `json:"trailing,omitempty"`
}

func decodeFlowRate(t ObjectType, body []byte) (Record, error) {
	r := newReader("FlowRate", body)
	rec := &FlowRate{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.ArchiveFlags = archiveFlags(rec.BitControl)
	rec.Unit = r.unit("unit", 8)
	rec.ErrorBitOrders = readErrorBitOrders(r)
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.Decimals = r.decimals()
	rec.Trailing = r.rest()
	return finish(rec, r)
}

// StandardFlowRate is a flow rate converted to base conditions
type StandardFlowRate struct {
	objectTag
	QuantityHeader
	ArchiveFlags
	Unit                    string `json:"unit"`
	NumberOfPrimaryFlowRate uint8  `json:"number_of_primary_flow_rate"`
	NumberOfConversion      uint8  `json:"number_of_conversion"`
	ArchiveAddresses
	Decimals *uint8 `json:"decimals"`
	Trailing []byte `json:"trailing,omitempty"`
}

func decodeStandardFlowRate(t ObjectType, body []byte) (Record, error) {
	r := newReader("StandardFlowRate", body)
	rec := &StandardFlowRate{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.ArchiveFlags = archiveFlags(rec.BitControl)
	rec.Unit = r.unit("unit", 8)
	rec.NumberOfPrimaryFlowRate = r.u8("number_of_primary_flow_rate")
	rec.NumberOfConversion = r.u8("number_of_conversion")
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.Decimals = r.decimals()
	rec.Trailing = r.rest()
	return finish(rec, r)
}

// ConversionCoefficient configures the volume conversion
type ConversionCoefficient struct {
	objectTag
	QuantityHeader
	ArchiveFlags
	NumberOfAnalogPressure           uint8   `json:"number_of_analog_pressure"`
	NumberOfAnalogTemperature        uint8   `json:"number_of_analog_temperature"`
	CompressibilityCalculationMethod uint8   `json:"compressibility_calculation_method"`
	DefaultValuePressure             float32 `json:"default_value_pressure"`
	DefaultValueTemperature          float32 `json:"default_value_temperature"`
	AlternateValueOfCompressibility  float32 `json:"alternate_value_of_compressibility"`
	ArchiveAddresses
	Decimals *uint8 `json:"decimals"`
	Trailing []byte `json:"trailing,omitempty"`
}

func decodeConversionCoefficient(t ObjectType, body []byte) (Record, error) {
	r := newReader("ConversionCoefficient", body)
	rec := &ConversionCoefficient{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.ArchiveFlags = archiveFlags(rec.BitControl)
	rec.NumberOfAnalogPressure = r.u8("number_of_analog_pressure")
	rec.NumberOfAnalogTemperature = r.u8("number_of_analog_temperature")
	rec.CompressibilityCalculationMethod = r.u8("compressibility_calculation_method")
	rec.DefaultValuePressure = r.f32("default_value_pressure")
	rec.DefaultValueTemperature = r.f32("default_value_temperature")
	rec.AlternateValueOfCompressibility = r.f32("alternate_value_of_compressibility")
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.Decimals = r.decimals()
	rec.Trailing = r.rest()
	return finish(rec, r)
}

// Compressibility covers the compressibility ratio and the Z factors
type Compressibility struct {
	objectTag
	QuantityHeader
	NumberOfConversionCoefficient uint8 `json:"number_of_conversion_coefficient"`
	ArchiveAddresses
	Decimals *uint8 `json:"decimals"`
	Trailing []byte `json:"trailing,omitempty"`
}

func decodeCompressibility(t ObjectType, body []byte) (Record, error) {
	r := newReader("Compressibility", body)
	rec := &Compressibility{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.NumberOfConversionCoefficient = r.u8("number_of_conversion_coefficient")
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.Decimals = r.decimals()
	rec.Trailing = r.rest()
	return finish(rec, r)
}

// Timer counts time, such as operating hours
type Timer struct {
	objectTag
	QuantityHeader
	ArchiveFlags
	ArchiveAddresses
}

func decodeTimer(t ObjectType, body []byte) (Record, error) {
	r := newReader("Timer", body)
	rec := &Timer{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.ArchiveFlags = archiveFlags(rec.BitControl)
	rec.ArchiveAddresses = readArchiveAddresses(r)
	return finish(rec, r)
}

// Diagnostics holds the masks that decide which device states are archived,
// alarmed or reported to dispatching
type Diagnostics struct {
	objectTag
	QuantityHeader
	InDataArchive    bool `json:"in_data_archive"`
	InDailyArchive   bool `json:"in_daily_archive"`
	InMonthlyArchive bool `json:"in_monthly_archive"`
	InFactoryArchive bool `json:"in_factory_archive"`
	ArchiveAddresses
	Mask1OfStatusArchive        uint32 `json:"mask_1_of_status_archive"`
	Mask2OfStatusArchive        uint32 `json:"mask_2_of_status_archive"`
	Mask1OfAlarm                uint32 `json:"mask_1_of_alarm"`
	Mask2OfAlarm                uint32 `json:"mask_2_of_alarm"`
	Mask1OfCallingToDispatching uint32 `json:"mask_1_of_calling_to_dispatching"`
	Mask2OfCallingToDispatching uint32 `json:"mask_2_of_calling_to_dispatching"`
	ActionDuringChange          uint8  `json:"action_during_change"`
	Trailing                    []byte `json:"trailing,omitempty"`
}

func decodeDiagnostics(t ObjectType, body []byte) (Record, error) {
	r := newReader("Diagnostics", body)
	rec := &Diagnostics{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.InDataArchive = rec.BitControl&bitDataArchive != 0
	rec.InDailyArchive = rec.BitControl&bitDailyArchive != 0
	rec.InMonthlyArchive = rec.BitControl&bitMonthlyArchive != 0
	rec.InFactoryArchive = rec.BitControl&bitFactoryArchive != 0
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.Mask1OfStatusArchive = r.u32("mask_1_of_status_archive")
	rec.Mask2OfStatusArchive = r.u32("mask_2_of_status_archive")
	rec.Mask1OfAlarm = r.u32("mask_1_of_alarm")
	rec.Mask2OfAlarm = r.u32("mask_2_of_alarm")
	rec.Mask1OfCallingToDispatching = r.u32("mask_1_of_calling_to_dispatching")
	rec.Mask2OfCallingToDispatching = r.u32("mask_2_of_calling_to_dispatching")
	rec.ActionDuringChange = r.u8("action_during_change")
	rec.Trailing = r.rest()
	return finish(rec, r)
}

// AnalogStatistics is a statistic (average, minimum, maximum...) over an
// analog quantity. Statistics, AnalogTimeStatistics and TimeStatistics
// share the layout.
type AnalogStatistics struct {
	objectTag
	QuantityHeader
	ArchiveFlags
	Unit                    string  `json:"unit"`
	Digit                   float32 `json:"digit"`
	Offset                  float32 `json:"offset"`
	NumberOfPrimaryQuantity uint8   `json:"number_of_primary_quantity"`
	StatisticsType          uint8   `json:"statistics_type"`
	ArchiveAddresses
	Decimals *uint8 `json:"decimals"`
	Trailing []byte `json:"trailing,omitempty"`
}

func decodeAnalogStatistics(t ObjectType, body []byte) (Record, error) {
	r := newReader("AnalogStatistics", body)
	rec := &AnalogStatistics{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.ArchiveFlags = archiveFlags(rec.BitControl)
	rec.Unit = r.unit("unit", 8)
	rec.Digit = r.f32("digit")
	rec.Offset = r.f32("offset")
	rec.NumberOfPrimaryQuantity = r.u8("number_of_primary_quantity")
	rec.StatisticsType = r.u8("statistics_type")
	rec.ArchiveAddresses = readArchiveAddresses(r)
	rec.Decimals = r.decimals()
	rec.Trailing = r.rest()
	return finish(rec, r)
}

// CounterStatistics is a statistic over a counter. StandardCounterStatistics
// shares the layout.
type CounterStatistics struct {
	objectTag
	QuantityHeader
	ArchiveFlags
	Unit                    string  `json:"unit"`
	Digit                   float64 `json:"digit"`
	TypeOfPrimaryQuantity   uint8   `json:"type_of_primary_quantity"`
	NumberOfPrimaryQuantity uint8   `json:"number_of_primary_quantity"`
	StatisticsType          uint8   `json:"statistics_type"`
	ArchiveAddresses
}

func decodeCounterStatistics(t ObjectType, body []byte) (Record, error) {
	r := newReader("CounterStatistics", body)
	rec := &CounterStatistics{objectTag: objectTag{t}, QuantityHeader: readQuantityHeader(r)}
	rec.ArchiveFlags = archiveFlags(rec.BitControl)
	rec.Unit = r.unit("unit", 8)
	rec.Digit = r.f64("digit")
	rec.TypeOfPrimaryQuantity = r.u8("type_of_primary_quantity")
	rec.NumberOfPrimaryQuantity = r.u8("number_of_primary_quantity")
	rec.StatisticsType = r.u8("statistics_type")
	rec.ArchiveAddresses = readArchiveAddresses(r)
	return finish(rec, r)
}

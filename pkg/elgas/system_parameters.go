// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import "fmt"

// DeviceType identifies the corrector model
type DeviceType uint8

const (
	DeviceElcor     DeviceType = 128
	DeviceElcorPlus DeviceType = 131
)

func (d DeviceType) String() string {
	switch d {
	case DeviceElcor:
		return "ELCOR"
	case DeviceElcorPlus:
		return "ELCOR_PLUS"
	}
	return fmt.Sprintf("UNKNOWN_%d", uint8(d))
}

// MarshalText renders the name in text exports
func (d DeviceType) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText accepts the names MarshalText produces
func (d *DeviceType) UnmarshalText(text []byte) error {
	n, err := parseEnumText(text, func(n uint8) string { return DeviceType(n).String() })
	*d = DeviceType(n)
	return err
}

// CertificationVariant is the metrological certification of the firmware
type CertificationVariant uint8

const (
	CertificationCMIMID  CertificationVariant = 2
	CertificationGeneric CertificationVariant = 4
)

func (c CertificationVariant) String() string {
	switch c {
	case CertificationCMIMID:
		return "CMI_MID"
	case CertificationGeneric:
		return "GENERIC"
	}
	return fmt.Sprintf("UNKNOWN_%d", uint8(c))
}

// MarshalText renders the name in text exports
func (c CertificationVariant) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText accepts the names MarshalText produces
func (c *CertificationVariant) UnmarshalText(text []byte) error {
	n, err := parseEnumText(text, func(n uint8) string { return CertificationVariant(n).String() })
	*c = CertificationVariant(n)
	return err
}

// SwitchFunction is what the hardware protection switch locks
type SwitchFunction uint8

const (
	SwitchNone                SwitchFunction = 0
	SwitchProtectMetrological SwitchFunction = 1
	SwitchProtectAll          SwitchFunction = 2
)

func (s SwitchFunction) String() string {
	switch s {
	case SwitchNone:
		return "NONE"
	case SwitchProtectMetrological:
		return "PROTECT_METROLOGICAL"
	case SwitchProtectAll:
		return "PROTECT_ALL"
	}
	return fmt.Sprintf("UNKNOWN_%d", uint8(s))
}

// MarshalText renders the name in text exports
func (s SwitchFunction) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts the names MarshalText produces
func (s *SwitchFunction) UnmarshalText(text []byte) error {
	n, err := parseEnumText(text, func(n uint8) string { return SwitchFunction(n).String() })
	*s = SwitchFunction(n)
	return err
}

// CompressibilityFormula selects the gas compressibility calculation
type CompressibilityFormula uint8

const (
	FormulaConst CompressibilityFormula = iota
	FormulaAGANX19
	FormulaSGERG88
	FormulaAGANX19Mod
	FormulaAGA8G1
	FormulaAGA8G2
	FormulaAGA892DC
	FormulaGOSTNX19Mod
)

var formulaNames = []string{"CONST", "AGANX19", "SGERG88", "AGANX19MOD", "AGA8G1", "AGA8G2", "AGA892DC", "GOSTNX19MOD"}

func (f CompressibilityFormula) String() string {
	if int(f) < len(formulaNames) {
		return formulaNames[f]
	}
	return fmt.Sprintf("UNKNOWN_%d", uint8(f))
}

// MarshalText renders the name in text exports
func (f CompressibilityFormula) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText accepts the names MarshalText produces
func (f *CompressibilityFormula) UnmarshalText(text []byte) error {
	n, err := parseEnumText(text, func(n uint8) string { return CompressibilityFormula(n).String() })
	*f = CompressibilityFormula(n)
	return err
}

func parseEnumText(text []byte, name func(uint8) string) (uint8, error) {
	for n := 0; n <= 0xFF; n++ {
		if name(uint8(n)) == string(text) {
			return uint8(n), nil
		}
	}
	return 0, fmt.Errorf("unknown name %q", text)
}

// Bits of the data_access byte
const (
	accessFullPassword   = 0b00000001
	accessReadPassword   = 0b00000010
	accessMetroSwitch    = 0b00000100
	accessUserSwitch     = 0b00001000
	accessSwitchFunction = 0b00110000
)

// GasComposition is the configured gas analysis, in mole percent except
// for combustion heat and relative density
type GasComposition struct {
	CO2             float32 `json:"co2"`
	N2              float32 `json:"n2"`
	CombustionHeat  float32 `json:"combustion_heat"`
	RelativeDensity float32 `json:"relative_density"`
	H2              float32 `json:"h2"`
	H2S             float32 `json:"h2s"`
	He              float32 `json:"he"`
	H2O             float32 `json:"h2o"`
	O2              float32 `json:"o2"`
	Ar              float32 `json:"ar"`
	CO              float32 `json:"co"`
	C1H4            float32 `json:"c1h4"`
	C2H6            float32 `json:"c2h6"`
	C3H8            float32 `json:"c3h8"`
	IC4H10          float32 `json:"ic4h10"`
	NC4H10          float32 `json:"nc4h10"`
	IC5H12          float32 `json:"ic5h12"`
	NC5H12          float32 `json:"nc5h12"`
	C6H14           float32 `json:"c6h14"`
	C7H16           float32 `json:"c7h16"`
	C8H18           float32 `json:"c8h18"`
	C9H20           float32 `json:"c9h20"`
	C10H22          float32 `json:"c10h22"`
}

// DecodeGasComposition decodes the 92-byte gas composition block
func DecodeGasComposition(data []byte) (GasComposition, error) {
	r := newReader("GasComposition", data)
	g := readGasComposition(r)
	return g, r.done()
}

func readGasComposition(r *reader) GasComposition {
	fields := make([]float32, 23)
	for i := range fields {
		fields[i] = r.f32("gas_composition")
	}
	return GasComposition{
		CO2:             fields[0],
		N2:              fields[1],
		CombustionHeat:  fields[2],
		RelativeDensity: fields[3],
		H2:              fields[4],
		H2S:             fields[5],
		He:              fields[6],
		H2O:             fields[7],
		O2:              fields[8],
		Ar:              fields[9],
		CO:              fields[10],
		C1H4:            fields[11],
		C2H6:            fields[12],
		C3H8:            fields[13],
		IC4H10:          fields[14],
		NC4H10:          fields[15],
		IC5H12:          fields[16],
		NC5H12:          fields[17],
		C6H14:           fields[18],
		C7H16:           fields[19],
		C8H18:           fields[20],
		C9H20:           fields[21],
		C10H22:          fields[22],
	}
}

// PortSettings configures one serial port of the device
type PortSettings struct {
	Speed      uint8 `json:"speed"`
	Protocol   uint8 `json:"protocol"`
	BitControl uint8 `json:"bit_control"`
}

func readPortSettings(r *reader) PortSettings {
	return PortSettings{
		Speed:      r.u8("port_speed"),
		Protocol:   r.u8("port_protocol"),
		BitControl: r.u8("port_bit_control"),
	}
}

// UnitSetting pairs a unit type with its display text
type UnitSetting struct {
	Type uint8  `json:"type"`
	Text string `json:"text"`
}

func readUnitSetting(r *reader, field string) UnitSetting {
	return UnitSetting{
		Type: r.u8(field + "_type"),
		Text: r.unit(field+"_text", 8),
	}
}

// SystemParameters is the first record of the stream and describes the
// device itself. Archive record lengths include the record timestamp.
type SystemParameters struct {
	objectTag
	DeviceType                       DeviceType             `json:"device_type"`
	SerialNumber                     uint32                 `json:"serial_number"`
	FirmwareVersion                  string                 `json:"firmware_version"`
	ServiceVersion                   uint8                  `json:"service_version"`
	CertificationVariant             CertificationVariant   `json:"certification_variant"`
	StationID                        string                 `json:"station_id"`
	DataAccess                       uint8                  `json:"data_access"`
	PasswordForFullAccessActive      bool                   `json:"password_for_full_access_active"`
	PasswordForReadingIsOn           bool                   `json:"password_for_reading_is_on"`
	MetrologicalSwitch               bool                   `json:"metrological_switch"`
	UserSwitch                       bool                   `json:"user_switch"`
	SwitchFunction                   SwitchFunction         `json:"switch_function"`
	ParameterCRC                     []byte                 `json:"parameter_crc"`
	MeasuringPeriod                  uint8                  `json:"measuring_period"`
	ArchivingPeriod                  uint16                 `json:"archiving_period"`
	BasePressure                     float32                `json:"base_pressure"`
	BaseTemperature                  float32                `json:"base_temperature"`
	CompressibilityFormula           CompressibilityFormula `json:"compressibility_formula"`
	GasComposition                   GasComposition         `json:"gas_composition"`
	DataArchiveRecordLength          uint16                 `json:"data_archive_record_length"`
	BinaryArchiveRecordLength        uint16                 `json:"binary_archive_record_length"`
	DailyArchiveRecordLength         uint16                 `json:"daily_archive_record_length"`
	MonthlyArchiveRecordLength       uint16                 `json:"monthly_archive_record_length"`
	InstantaneousValuesErrorBitOrder uint16                 `json:"instantaneous_values_error_bit_order"`
	BinaryArchiveRecordErrorBitOrder uint16                 `json:"binary_archive_record_error_bit_order"`
	DataArchiveRecordErrorBitOrder   uint16                 `json:"data_archive_record_error_bit_order"`
	OpticalPort                      PortSettings           `json:"optical_port"`
	CommunicationPorts               [3]PortSettings        `json:"communication_ports"`
	GasHour                          uint8                  `json:"gas_hour"`
	FixedBarometricPressure          float32                `json:"fixed_barometric_pressure"`
	Altitude                         float32                `json:"altitude"`
	StatusArchiveRecordLength        uint16                 `json:"status_archive_record_length"`
	PressureUnit                     UnitSetting            `json:"pressure_unit"`
	TemperatureUnit                  UnitSetting            `json:"temperature_unit"`
	AltitudeUnit                     UnitSetting            `json:"altitude_unit"`
	GrossCalorificValueUnit          UnitSetting            `json:"gross_calorific_value_unit"`
	DSTRegion                        uint8                  `json:"dst_region"`
	GMTHourShift                     uint8                  `json:"gmt_hour_shift"`
	BillingArchiveRecordLength       uint16                 `json:"billing_archive_record_length"`
	ConditionsForCombustionHeat      uint8                  `json:"conditions_for_combustion_heat"`
	DeviceVariant                    uint8                  `json:"device_variant"`
	BitControl                       uint8                  `json:"bit_control"`
	CorrectedVolumeCountersAmount    uint8                  `json:"corrected_volume_counters_amount"`
	DeviceFeaturesBits               uint8                  `json:"device_features_bits"`
	DeviceFeatures                   []byte                 `json:"device_features"`
	VersionMetrologicalPart          string                 `json:"version_metrological_part"`
	MetrologicalCRC                  uint16                 `json:"metrological_crc"`
	MetrologicalCRC32                uint32                 `json:"metrological_crc_32"`
	ApplicationCRC32                 uint32                 `json:"application_crc_32"`
}

// Label implements Record
func (s *SystemParameters) Label() string { return s.StationID }

func decodeSystemParameters(t ObjectType, body []byte) (Record, error) {
	r := newReader("SystemParameters", body)
	s := &SystemParameters{objectTag: objectTag{t}}
	s.DeviceType = DeviceType(r.u8("device_type"))
	s.SerialNumber = r.u32("serial_number")
	s.FirmwareVersion = r.name("firmware_version", 5)
	s.ServiceVersion = r.u8("service_version")
	s.CertificationVariant = CertificationVariant(r.u8("certification_variant"))
	s.StationID = r.name("station_id", 17)

	s.DataAccess = r.u8("data_access")
	s.PasswordForFullAccessActive = s.DataAccess&accessFullPassword != 0
	s.PasswordForReadingIsOn = s.DataAccess&accessReadPassword != 0
	s.MetrologicalSwitch = s.DataAccess&accessMetroSwitch != 0
	s.UserSwitch = s.DataAccess&accessUserSwitch != 0
	s.SwitchFunction = SwitchFunction((s.DataAccess & accessSwitchFunction) >> 4)

	s.ParameterCRC = r.bytes("parameter_crc", 2)
	s.MeasuringPeriod = r.u8("measuring_period")
	s.ArchivingPeriod = r.u16("archiving_period")
	s.BasePressure = r.f32("base_pressure")
	s.BaseTemperature = r.f32("base_temperature")
	s.CompressibilityFormula = CompressibilityFormula(r.u8("compressibility_formula"))
	s.GasComposition = readGasComposition(r)

	s.DataArchiveRecordLength = r.u16("data_archive_record_length")
	s.BinaryArchiveRecordLength = r.u16("binary_archive_record_length")
	s.DailyArchiveRecordLength = r.u16("daily_archive_record_length")
	s.MonthlyArchiveRecordLength = r.u16("monthly_archive_record_length")
	s.InstantaneousValuesErrorBitOrder = r.u16("instantaneous_values_error_bit_order")
	s.BinaryArchiveRecordErrorBitOrder = r.u16("binary_archive_record_error_bit_order")
	s.DataArchiveRecordErrorBitOrder = r.u16("data_archive_record_error_bit_order")

	s.OpticalPort = readPortSettings(r)
	for i := range s.CommunicationPorts {
		s.CommunicationPorts[i] = readPortSettings(r)
	}
	s.GasHour = r.u8("gas_hour")
	s.FixedBarometricPressure = r.f32("fixed_barometric_pressure")
	s.Altitude = r.f32("altitude")
	r.take("unused", 17)
	s.StatusArchiveRecordLength = r.u16("status_archive_record_length")

	s.PressureUnit = readUnitSetting(r, "pressure_unit")
	s.TemperatureUnit = readUnitSetting(r, "temperature_unit")
	s.AltitudeUnit = readUnitSetting(r, "altitude_unit")
	s.GrossCalorificValueUnit = readUnitSetting(r, "gross_calorific_value")

	s.DSTRegion = r.u8("dst_region")
	s.GMTHourShift = r.u8("gmt_hour_shift")
	s.BillingArchiveRecordLength = r.u16("billing_archive_record_length")
	s.ConditionsForCombustionHeat = r.u8("conditions_for_combustion_heat")
	s.DeviceVariant = r.u8("device_variant")
	r.take("unused", 1)
	s.BitControl = r.u8("bit_control")
	s.CorrectedVolumeCountersAmount = r.u8("corrected_volume_counters_amount")
	s.DeviceFeaturesBits = r.u8("device_features_bits")
	s.DeviceFeatures = r.bytes("device_features", 16)
	s.VersionMetrologicalPart = r.name("version_metrological_part", 5)
	s.MetrologicalCRC = r.u16("metrological_crc")
	s.MetrologicalCRC32 = r.u32("metrological_crc_32")
	s.ApplicationCRC32 = r.u32("application_crc_32")
	return finish(s, r)
}

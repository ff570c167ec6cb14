// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ConfigurationObject is the export shape of one record: its tag and its
// fields
type ConfigurationObject struct {
	ParameterType ObjectType `json:"parameter_type"`
	Data          Record     `json:"data"`
}

type rawConfigurationObject[T any] struct {
	ParameterType ObjectType `json:"parameter_type"`
	Data          T          `json:"data"`
}

// NewConfigurationObjects wraps records for export
func NewConfigurationObjects(records []Record) []ConfigurationObject {
	out := make([]ConfigurationObject, len(records))
	for i, rec := range records {
		out[i] = ConfigurationObject{ParameterType: rec.ObjectType(), Data: rec}
	}
	return out
}

// MarshalRecordsJSON exports records as indented JSON
func MarshalRecordsJSON(records []Record) ([]byte, error) {
	return json.MarshalIndent(NewConfigurationObjects(records), "", "  ")
}

// UnmarshalRecordsJSON reads records written by MarshalRecordsJSON
func UnmarshalRecordsJSON(data []byte) ([]Record, error) {
	var raw []rawConfigurationObject[json.RawMessage]
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(raw))
	for i, obj := range raw {
		rec, err := emptyRecord(obj.ParameterType)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		if err := json.Unmarshal(obj.Data, rec); err != nil {
			return nil, fmt.Errorf("object %d (%s): %w", i, obj.ParameterType, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

var cborEncMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// MarshalRecordsCBOR exports records as deterministic CBOR
func MarshalRecordsCBOR(records []Record) ([]byte, error) {
	return cborEncMode.Marshal(NewConfigurationObjects(records))
}

// UnmarshalRecordsCBOR reads records written by MarshalRecordsCBOR
func UnmarshalRecordsCBOR(data []byte) ([]Record, error) {
	var raw []rawConfigurationObject[cbor.RawMessage]
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(raw))
	for i, obj := range raw {
		rec, err := emptyRecord(obj.ParameterType)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		if err := cbor.Unmarshal(obj.Data, rec); err != nil {
			return nil, fmt.Errorf("object %d (%s): %w", i, obj.ParameterType, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// emptyRecord returns a zero record of the kind decoded for t
func emptyRecord(t ObjectType) (Record, error) {
	tag := objectTag{t}
	switch t {
	case ObjectSystemParameters:
		return &SystemParameters{objectTag: tag}, nil
	case ObjectAnalogQuantity:
		return &AnalogQuantity{objectTag: tag}, nil
	case ObjectBinary:
		return &Binary{objectTag: tag}, nil
	case ObjectCounter, ObjectDoubleCounter:
		return &Counter{objectTag: tag}, nil
	case ObjectStandardCounter:
		return &StandardCounter{objectTag: tag}, nil
	case ObjectFlowRate:
		return &FlowRate{objectTag: tag}, nil
	case ObjectStandardFlowRate:
		return &StandardFlowRate{objectTag: tag}, nil
	case ObjectConversionCoefficient:
		return &ConversionCoefficient{objectTag: tag}, nil
	case ObjectErrorCounter, ObjectCorrectionCounter, ObjectDoubleErrorCounter:
		return &ErrorCounter{objectTag: tag}, nil
	case ObjectErrorStandardCounter:
		return &ErrorStandardCounter{objectTag: tag}, nil
	case ObjectCompressibility, ObjectCompressibilityZ, ObjectCompressibilityZBase:
		return &Compressibility{objectTag: tag}, nil
	case ObjectTimeWindow:
		return &TimeWindow{objectTag: tag}, nil
	case ObjectDiagnostics:
		return &Diagnostics{objectTag: tag}, nil
	case ObjectDeviceError:
		return &DeviceErrorParameter{objectTag: tag}, nil
	case ObjectSumOfAlarms:
		return &SumOfAlarms{objectTag: tag}, nil
	case ObjectTimer:
		return &Timer{objectTag: tag}, nil
	case ObjectTariffCounter, ObjectDoubleTariffCounter:
		return &TariffCounter{objectTag: tag}, nil
	case ObjectBaseTariffCounter:
		return &BaseTariffCounter{objectTag: tag}, nil
	case ObjectSetPoint:
		return &SetPoint{objectTag: tag}, nil
	case ObjectDifferenceCounter, ObjectDifferenceBaseCounter:
		return &DifferenceCounter{objectTag: tag}, nil
	case ObjectEnergy, ObjectErrorEnergy:
		return &Energy{objectTag: tag}, nil
	case ObjectAnalogStatistics, ObjectStatistics, ObjectAnalogTimeStatistics, ObjectTimeStatistics:
		return &AnalogStatistics{objectTag: tag}, nil
	case ObjectCounterStatistics, ObjectStandardCounterStatistics:
		return &CounterStatistics{objectTag: tag}, nil
	case ObjectModem:
		return &Modem{objectTag: tag}, nil
	}
	return nil, &UnknownParameterTypeError{Type: uint8(t)}
}

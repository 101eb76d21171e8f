package log

import "go.uber.org/zap"

const (
	FieldNameComponent = "component"
	FieldNameTable     = "tableID"
	FieldNameTablet    = "tabletID"
	FieldNameServer    = "serverID"
)

// FieldComponent returns a zap field with the component name.
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldTable returns a zap field with the table identity.
func FieldTable(tableID int64) zap.Field {
	return zap.Int64(FieldNameTable, tableID)
}

// FieldTablet returns a zap field with the tablet identity.
func FieldTablet(tabletID int64) zap.Field {
	return zap.Int64(FieldNameTablet, tabletID)
}

// FieldServer returns a zap field with the storage server identity.
func FieldServer(serverID int64) zap.Field {
	return zap.Int64(FieldNameServer, serverID)
}

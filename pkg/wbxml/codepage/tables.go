package codepage

// Per-codepage tag tables. Token ids are the low-6-bit token, never ORed
// with the content bit — the encoder/decoder apply that bit themselves.
//
// Only the codepages this core actually projects into wire bytes (spec.md
// §4.4's Schema Tables) carry a full table; codepages named in Names but
// absent from tables{} are still accepted on SWITCH_PAGE (IsRegistered)
// but have no tags this core emits or expects.

var airSyncTable = map[string]byte{
	"Sync":              0x05,
	"Responses":         0x06,
	"Add":                0x07,
	"Change":             0x08,
	"Delete":             0x09,
	"Fetch":              0x0A,
	"SyncKey":            0x0B,
	"ClientId":           0x0C,
	"ServerId":           0x0D,
	"Status":             0x0E,
	"Collection":         0x0F,
	"Class":               0x10,
	"Version":             0x11,
	"CollectionId":        0x12,
	"GetChanges":          0x13,
	"MoreAvailable":       0x14,
	"WindowSize":          0x15,
	"Commands":            0x16,
	"Options":             0x17,
	"FilterType":          0x18,
	"Conflict":            0x19,
	"Collections":         0x1A,
	"ApplicationData":     0x1B,
	"DeletesAsMoves":      0x1C,
	"NotifyGUID":          0x1D,
	"Supported":           0x1E,
	"SoftDelete":          0x1F,
	"MIMESupport":         0x20,
	"MIMETruncation":      0x21,
	"Wait":                0x22,
	"Limit":               0x23,
	"Partial":             0x24,
	"ConversationMode":    0x25,
	"MaxItems":            0x26,
	"HeartbeatInterval":   0x27,
}

var emailTable = map[string]byte{
	"Attachment":               0x05,
	"Attachments":              0x06,
	"AttName":                  0x07,
	"AttSize":                  0x08,
	"AttOid":                   0x09,
	"AttMethod":                0x0A,
	"AttRemoved":               0x0B,
	"Body":                     0x0C,
	"BodySize":                 0x0D,
	"BodyTruncated":            0x0E,
	"DateReceived":             0x0F,
	"DisplayName":              0x10,
	"DisplayTo":                0x11,
	"Importance":               0x12,
	"MessageClass":             0x13,
	"Subject":                  0x14,
	"Read":                     0x15,
	"To":                       0x16,
	"Cc":                       0x17,
	"From":                     0x18,
	"ReplyTo":                  0x19,
	"ThreadTopic":              0x35,
	"InternetCPID":             0x39,
	"Flag":                     0x3A,
	"FlagStatus":                0x3B,
	"ContentClass":              0x3C,
	"FlagType":                  0x3D,
	"CompleteTime":              0x3E,
}

var folderHierarchyTable = map[string]byte{
	"FolderSync":       0x16,
	"Status":           0x0C,
	"SyncKey":          0x12,
	"Changes":          0x0E,
	"Count":            0x17,
	"Add":              0x0F,
	"ServerId":         0x08,
	"ParentId":         0x09,
	"DisplayName":      0x07,
	"Type":             0x0A,
	"Delete":           0x10,
	"Update":           0x11,
}

var airSyncBaseTable = map[string]byte{
	"BodyPreference":     0x05,
	"Type":                0x06,
	"TruncationSize":      0x07,
	"AllOrNone":           0x08,
	"Body":                0x0A,
	"Data":                0x0B,
	"EstimatedDataSize":   0x0C,
	"Truncated":           0x0D,
	"Attachments":         0x0E,
	"Attachment":          0x0F,
	"DisplayName":         0x10,
	"FileReference":       0x11,
	"Method":              0x12,
	"ContentId":           0x13,
	"ContentLocation":     0x14,
	"IsInline":            0x15,
	"NativeBodyType":      0x16,
	"ContentType":         0x17,
	"Preview":             0x18,
	"BodyPartPreference":  0x19,
	"BodyPart":            0x1A,
	"Status":              0x1B,
}

var provisionTable = map[string]byte{
	"Provision":                           0x05,
	"Policies":                            0x06,
	"Policy":                              0x07,
	"PolicyType":                          0x08,
	"PolicyKey":                           0x09,
	"Data":                                0x0A,
	"Status":                              0x0B,
	"RemoteWipe":                          0x0C,
	"EASProvisionDoc":                     0x0D,
	"DevicePasswordEnabled":               0x0E,
	"AlphanumericDevicePasswordRequired":  0x0F,
	"PasswordRecoveryEnabled":             0x11,
	"AttachmentsEnabled":                  0x13,
	"MinDevicePasswordLength":             0x14,
	"MaxInactivityTimeDeviceLock":         0x15,
	"MaxDevicePasswordFailedAttempts":     0x16,
	"MaxAttachmentSize":                   0x17,
	"AllowSimpleDevicePassword":           0x18,
	"DevicePasswordExpiration":            0x19,
	"DevicePasswordHistory":               0x1A,
}

var pingTable = map[string]byte{
	"Ping":              0x05,
	"AutdState":         0x06,
	"Status":            0x07,
	"HeartbeatInterval": 0x08,
	"Folders":           0x09,
	"Folder":            0x0A,
	"Id":                0x0B,
	"Class":             0x0C,
	"MaxFolders":        0x0D,
}

var itemOperationsTable = map[string]byte{
	"ItemOperations":      0x05,
	"Fetch":               0x06,
	"Store":               0x07,
	"Options":             0x08,
	"Range":               0x09,
	"Total":               0x0A,
	"Properties":          0x0B,
	"Data":                0x0C,
	"Status":              0x0D,
	"Response":            0x0E,
	"Version":             0x0F,
	"Schema":              0x10,
	"Part":                0x11,
	"EmptyFolderContents":  0x12,
	"DeleteSubFolders":    0x13,
	"Move":                0x16,
	"DstFldId":            0x17,
	"ConversationId":      0x18,
	"MoveAlways":          0x19,
}

var galTable = map[string]byte{
	"DisplayName":  0x05,
	"Phone":        0x06,
	"Office":       0x07,
	"Title":        0x08,
	"Company":      0x09,
	"Alias":        0x0A,
	"FirstName":    0x0B,
	"LastName":     0x0C,
	"HomePhone":    0x0D,
	"MobilePhone":  0x0E,
	"EmailAddress": 0x0F,
}

var getItemEstimateTable = map[string]byte{
	"GetItemEstimate": 0x05,
	"Version":         0x06,
	"Collections":     0x07,
	"Collection":      0x08,
	"Class":           0x09,
	"CollectionId":    0x0A,
	"DateTime":        0x0B,
	"Estimate":        0x0C,
	"Response":        0x0D,
	"Status":          0x0E,
}

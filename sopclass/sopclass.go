// Package sopclass lists well-known DICOM SOP Class UIDs used to build
// default presentation-context proposals when a caller does not supply its
// own list.
//
// https://www.dicomlibrary.com/dicom/sop/
package sopclass

// SOPUID names one SOP Class by its human-readable name and its UID.
type SOPUID struct {
	Name string
	UID  string
}

// VerificationClasses is used for issuing C-ECHO.
var VerificationClasses = []SOPUID{
	{"VerificationSOPClass", "1.2.840.10008.1.1"},
}

// QRFindClasses is used for issuing C-FIND against the Query/Retrieve SCP.
var QRFindClasses = []SOPUID{
	{"PatientRootQueryRetrieveInformationModelFIND", "1.2.840.10008.5.1.4.1.2.1.1"},
	{"StudyRootQueryRetrieveInformationModelFIND", "1.2.840.10008.5.1.4.1.2.2.1"},
}

// QRMoveClasses is used for issuing C-MOVE against the Query/Retrieve SCP.
var QRMoveClasses = []SOPUID{
	{"PatientRootQueryRetrieveInformationModelMOVE", "1.2.840.10008.5.1.4.1.2.1.2"},
	{"StudyRootQueryRetrieveInformationModelMOVE", "1.2.840.10008.5.1.4.1.2.2.2"},
}

// StorageClasses is a representative (non-exhaustive) set of SOP classes
// used for issuing C-STORE.
var StorageClasses = []SOPUID{
	{"CTImageStorage", "1.2.840.10008.5.1.4.1.1.2"},
	{"MRImageStorage", "1.2.840.10008.5.1.4.1.1.4"},
	{"SecondaryCaptureImageStorage", "1.2.840.10008.5.1.4.1.1.7"},
	{"UltrasoundImageStorage", "1.2.840.10008.5.1.4.1.1.6.1"},
}

// UIDs extracts the bare UID strings from a SOPUID list, the shape needed
// when building a PresentationContext proposal.
func UIDs(classes []SOPUID) []string {
	uids := make([]string, len(classes))
	for i, c := range classes {
		uids[i] = c.UID
	}
	return uids
}

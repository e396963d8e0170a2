// Package shared holds helpers used by more than one package of the dashboard.
//
// The testutil subpackage provides a log capture handler for asserting on
// structured log output and fixture writers that produce CSV and Excel files
// in the layouts published by BLS, ILO and the World Bank.
//
// Example usage:
//
//	func TestLoader(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    dir := t.TempDir()
//	    testutil.WriteFile(t, dir, "bls_unemployment.csv", testutil.BLSYouthCSV)
//	    ...
//	    assert.True(t, logs.ContainsMessage("Data directory loaded"))
//	}
package shared

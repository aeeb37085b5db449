package utils

import "testing"

type parseTarget struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// TestDecodeJSON verifies direct decoding, repair-then-retry for malformed
// payloads, and failure for payloads beyond repair.
func TestDecodeJSON(t *testing.T) {
	testCases := []struct {
		name        string
		data        string
		wantErr     bool
		checkResult func(t *testing.T, result *parseTarget)
	}{
		{
			name:    "valid JSON decodes directly",
			data:    `{"name":"Ada","age":36}`,
			wantErr: false,
			checkResult: func(t *testing.T, result *parseTarget) {
				if result.Name != "Ada" || result.Age != 36 {
					t.Errorf("unexpected result: %+v", result)
				}
			},
		},
		{
			name:    "unquoted keys repaired",
			data:    `{name: "Ada", age: 36}`,
			wantErr: false,
			checkResult: func(t *testing.T, result *parseTarget) {
				if result.Name != "Ada" || result.Age != 36 {
					t.Errorf("unexpected result after repair: %+v", result)
				}
			},
		},
		{
			name:    "single quotes repaired",
			data:    `{'name': 'Ada'}`,
			wantErr: false,
			checkResult: func(t *testing.T, result *parseTarget) {
				if result.Name != "Ada" {
					t.Errorf("unexpected result after repair: %+v", result)
				}
			},
		},
		{
			name:    "hopeless garbage fails",
			data:    `not even close [[[`,
			wantErr: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result, err := DecodeJSON[parseTarget]([]byte(testCase.data))
			if (err != nil) != testCase.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr = %v", err, testCase.wantErr)
			}
			if !testCase.wantErr {
				testCase.checkResult(t, result)
			}
		})
	}
}

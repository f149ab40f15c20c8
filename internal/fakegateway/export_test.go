package fakegateway

var FilterSensitiveBody = filterSensitiveBody
